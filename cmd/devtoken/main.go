// Command devtoken prints an access token for local testing of the tracking API.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/Temutjin2k/triplog/internal/domain/models"
	"github.com/Temutjin2k/triplog/internal/domain/types"
	"github.com/Temutjin2k/triplog/internal/service/auth"
)

var (
	secret = flag.String("secret", "", "HS256 secret, same as AUTH_JWT_SECRET")
	userID = flag.String("user", "", "user id put into the token")
	role   = flag.String("role", string(types.DriverRole), "DRIVER or ADMIN")
	ttl    = flag.Duration("ttl", 24*time.Hour, "token lifetime")
)

func main() {
	flag.Parse()

	if *secret == "" || *userID == "" {
		flag.Usage()
		log.Fatal("secret and user are required")
	}

	tokens := auth.NewTokenService(*secret, *ttl)
	token, err := tokens.Issue(&models.User{ID: *userID, Role: types.UserRole(*role)})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(token)
}
