package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"github.com/basketworks/basketapi/lib/myauth"
	"github.com/basketworks/basketapi/lib/mylog"
	"github.com/basketworks/basketapi/lib/mypublisher"
	"github.com/basketworks/basketapi/lib/mypubsub"
	"github.com/basketworks/basketapi/lib/mystore"
	"github.com/basketworks/basketapi/lib/mytime"
	"github.com/basketworks/basketapi/services/basket"
	"github.com/basketworks/basketapi/services/products"
	"github.com/basketworks/basketapi/services/token"
)

func main() {
	c := context.Background()

	router := mux.NewRouter()
	nower := mytime.RealNower{}

	basketStore, basketStoreCleanup, err := mystore.New[basket.Basket](c)
	if err != nil {
		log.Fatalf("Error creating basket store: %s", err)
	}
	defer basketStoreCleanup()

	pubsub, pubsubCleanup, err := mypubsub.New(c)
	if err != nil {
		log.Fatalf("Error connecting to pubsub: %s", err)
	}
	defer pubsubCleanup()

	publisher, publisherCleanup, err := mypublisher.New(c, pubsub, nower)
	if err != nil {
		log.Fatalf("Error creating event publisher: %s", err)
	}
	defer publisherCleanup()

	tokenCrafter := myauth.NewTokenCrafter(myauth.SigningSecretFromEnv())

	tokenService := token.NewService(token.NewStubAuthenticator(), tokenCrafter, nower, mylog.New("token"))
	tokenService.RegisterEndpoints(c, router)

	basketService := basket.NewService(basketStore, publisher, products.NewStubPreviewer(), mylog.New("basket"))
	err = basketService.RegisterEndpoints(c, router, tokenCrafter)
	if err != nil {
		log.Fatalf("Error registering basket endpoints: %s", err)
	}

	startWebServerBlocking(router)
}

func startWebServerBlocking(router *mux.Router) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting webserver on port %s (try http://localhost:%s/api)", port, port)
	err := http.ListenAndServe(fmt.Sprintf(":%s", port), router)
	if err != nil {
		log.Fatalf("Error starting webserver on port %s: %s", port, err)
	}
}
