package main

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/spf13/pflag"
)

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_"

const envKey = "PASETO_SYMMETRIC_KEY"

// generateKey returns exactly 32 random characters for a PASETO v4 symmetric key
func generateKey() (string, error) {
	key := make([]byte, 32)
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", err
	}
	for i := 0; i < 32; i++ {
		key[i] = charset[int(randomBytes[i])%len(charset)]
	}
	return string(key), nil
}

// setEnvLine replaces or appends the key line in an env file's contents
func setEnvLine(contents []byte, key, value string) []byte {
	var out bytes.Buffer
	replaced := false
	for _, line := range strings.Split(strings.TrimRight(string(contents), "\n"), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), key+"=") {
			line = key + "=" + value
			replaced = true
		}
		if line != "" || out.Len() > 0 {
			out.WriteString(line + "\n")
		}
	}
	if !replaced {
		out.WriteString(key + "=" + value + "\n")
	}
	return out.Bytes()
}

func main() {
	write := pflag.StringP("write", "w", "", "write the key into this env file instead of printing it")
	pflag.Parse()

	keyString, err := generateKey()
	if err != nil {
		log.Fatal("Failed to generate random key:", err)
	}

	if *write == "" {
		fmt.Println("Generated PASETO V4 Symmetric Key (32 bytes):")
		fmt.Println("================================================")
		fmt.Println("\nAdd this to your .env file:")
		fmt.Printf("%s=%s\n", envKey, keyString)
		return
	}

	existing, err := os.ReadFile(*write)
	if err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to read %s: %v", *write, err)
	}
	if err := atomic.WriteFile(*write, bytes.NewReader(setEnvLine(existing, envKey, keyString))); err != nil {
		log.Fatalf("Failed to write %s: %v", *write, err)
	}
	fmt.Printf("%s written to %s\n", envKey, *write)
}
