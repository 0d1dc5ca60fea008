// Command token mints a development bearer token for the whiteboard
// API. Production tokens come from the identity provider; this tool
// only exists so local clients can call authenticated endpoints.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func main() {
	secret := flag.String("secret", "dev-secret", "HMAC signing secret (must match JWT_SECRET)")
	email := flag.String("email", "", "Subject email")
	name := flag.String("name", "", "Display name")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "Usage: token -email <email> [-name <name>] [-secret <secret>] [-ttl <duration>]")
		os.Exit(1)
	}
	if *name == "" {
		*name = *email
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   uuid.New().String(),
		"email": *email,
		"name":  *name,
		"iat":   now.Unix(),
		"exp":   now.Add(*ttl).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(*secret))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(signed)
}
