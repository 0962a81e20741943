package models

// Store is the business entity operating the dashboard. It is the subject of
// the authenticated session.
type Store struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Phone        string  `json:"phone"`
	City         string  `json:"city"`
	Address      string  `json:"address"`
	Image        string  `json:"image,omitempty"`
	Longitude    float64 `json:"longitude"`
	Latitude     float64 `json:"latitude"`
	CategoryID   string  `json:"categoryId,omitempty"`
	MenuURL      string  `json:"menuUrl,omitempty"`
	FacebookURL  string  `json:"facebookUrl,omitempty"`
	InstagramURL string  `json:"instagramUrl,omitempty"`
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    string  `json:"updatedAt"`
}

// StoreAuthResponse is returned by the backend on successful OTP verification
type StoreAuthResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	Store   *Store `json:"store"`
}

// OtpRequestResponse is returned by the backend when an OTP has been sent
type OtpRequestResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
