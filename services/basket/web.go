package basket

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/basketworks/basketapi/lib/myauth"
	"github.com/basketworks/basketapi/lib/mycontext"
	"github.com/basketworks/basketapi/lib/myerrors"
	"github.com/basketworks/basketapi/lib/myhttp"
	"github.com/basketworks/basketapi/lib/mylog"
	"github.com/basketworks/basketapi/lib/mypublisher"
	"github.com/basketworks/basketapi/lib/mystore"
	"github.com/basketworks/basketapi/services/basket/basketevents"
	"github.com/basketworks/basketapi/services/basketapi"
	"github.com/basketworks/basketapi/services/products"
)

type webService struct {
	service   *service
	previewer products.ProductPreviewer
	logger    mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewService(store mystore.Store[Basket], publisher mypublisher.Publisher, previewer products.ProductPreviewer, logger mylog.Logger) *webService {
	return &webService{
		service:   newService(store, publisher, logger),
		previewer: previewer,
		logger:    logger,
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router, verifier myauth.TokenVerifier) error {
	err := s.service.publisher.CreateTopic(c, basketevents.TopicName)
	if err != nil {
		return fmt.Errorf("error creating topic %s: %s", basketevents.TopicName, err)
	}

	// Anonymous entry point so clients can discover the API without
	// hard-coded URLs
	router.HandleFunc("/api", s.apiRoot()).Methods("GET")

	// Convenient alias resolving the basket owner from the token
	my := router.PathPrefix("/api/my").Subrouter()
	my.Use(myauth.Authenticate(verifier, s.logger))
	my.HandleFunc("/basket", s.myBasket()).Methods("GET")

	// Canonical user-scoped resources: the principal must own them
	owned := router.PathPrefix("/api/users/{userUID}").Subrouter()
	owned.Use(myauth.Authenticate(verifier, s.logger))
	owned.Use(myauth.RequireResourceOwner(s.logger))
	owned.HandleFunc("/basket", s.getBasket()).Methods("GET")
	owned.HandleFunc("/basket/items", s.listItems()).Methods("GET")
	owned.HandleFunc("/basket/items", s.addItem()).Methods("POST")
	owned.HandleFunc("/basket/items", s.clearBasket()).Methods("DELETE")
	owned.HandleFunc("/basket/items/{productUID}", s.getItem()).Methods("GET")
	owned.HandleFunc("/basket/items/{productUID}", s.updateItem()).Methods("PUT")
	owned.HandleFunc("/basket/items/{productUID}", s.deleteItem()).Methods("DELETE")

	return nil
}

func (s *webService) apiRoot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		responseWriter.WriteHal(c, w, http.StatusOK, map[string]basketapi.HalLink{
			"basket": {Href: "/api/my/basket", Title: "my-basket"},
			"token":  {Href: "/api/token", Title: "token"},
		})
	}
}

func (s *webService) myBasket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		userUID, found := mycontext.AuthenticatedUserID(c)
		if !found {
			responseWriter.WriteError(c, w, 1, myerrors.NewUnauthenticatedError(
				fmt.Errorf("no authenticated principal")))
			return
		}

		basket, err := s.service.getBasket(c, userUID)
		if err != nil {
			responseWriter.WriteError(c, w, 1, err)
			return
		}

		responseWriter.WriteHal(c, w, http.StatusOK, s.basketRepresentation(c, basket))
	}
}

func (s *webService) getBasket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		userUID := mux.Vars(r)["userUID"]

		basket, err := s.service.getBasket(c, userUID)
		if err != nil {
			responseWriter.WriteError(c, w, 1, err)
			return
		}

		responseWriter.WriteHal(c, w, http.StatusOK, s.basketRepresentation(c, basket))
	}
}

func (s *webService) listItems() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		userUID := mux.Vars(r)["userUID"]

		basket, err := s.service.getBasket(c, userUID)
		if err != nil {
			responseWriter.WriteError(c, w, 1, err)
			return
		}

		representations := make([]basketapi.BasketItem, 0, len(basket.Items))
		for _, item := range basket.ListItems() {
			representations = append(representations, s.itemRepresentation(c, userUID, item, true))
		}

		responseWriter.WriteHal(c, w, http.StatusOK, representations)
	}
}

func (s *webService) getItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		userUID := mux.Vars(r)["userUID"]
		productUID := mux.Vars(r)["productUID"]

		item, found, err := s.service.getItem(c, userUID, productUID)
		if err != nil {
			responseWriter.WriteError(c, w, 1, err)
			return
		}
		if !found {
			responseWriter.WriteError(c, w, 1, myerrors.NewNotFoundError(
				fmt.Errorf("product %s not in basket of user %s", productUID, userUID)))
			return
		}

		responseWriter.WriteHal(c, w, http.StatusOK, s.itemRepresentation(c, userUID, item, true))
	}
}

func (s *webService) addItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		userUID := mux.Vars(r)["userUID"]

		request, err := basketapi.ParseAddItemRequest(r.Body)
		if err != nil {
			responseWriter.WriteError(c, w, 1, err)
			return
		}

		err = s.service.addItem(c, userUID, request.ProductUID, request.Quantity)
		if err != nil {
			responseWriter.WriteError(c, w, 1, err)
			return
		}

		w.Header().Set("Location", myhttp.HostnameWithScheme(r)+itemURL(userUID, request.ProductUID))
		responseWriter.WriteHal(c, w, http.StatusCreated, nil)
	}
}

func (s *webService) updateItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		userUID := mux.Vars(r)["userUID"]
		productUID := mux.Vars(r)["productUID"]

		request, err := basketapi.ParseUpdateItemRequest(r.Body)
		if err != nil {
			responseWriter.WriteError(c, w, 1, err)
			return
		}

		updated, err := s.service.updateItemQuantity(c, userUID, productUID, request.Quantity)
		if err != nil {
			responseWriter.WriteError(c, w, 1, err)
			return
		}
		if !updated {
			responseWriter.WriteError(c, w, 1, myerrors.NewNotFoundError(
				fmt.Errorf("product %s not in basket of user %s", productUID, userUID)))
			return
		}

		responseWriter.WriteHal(c, w, http.StatusNoContent, nil)
	}
}

func (s *webService) deleteItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		userUID := mux.Vars(r)["userUID"]
		productUID := mux.Vars(r)["productUID"]

		deleted, err := s.service.deleteItem(c, userUID, productUID)
		if err != nil {
			responseWriter.WriteError(c, w, 1, err)
			return
		}
		if !deleted {
			responseWriter.WriteError(c, w, 1, myerrors.NewNotFoundError(
				fmt.Errorf("product %s not in basket of user %s", productUID, userUID)))
			return
		}

		responseWriter.WriteHal(c, w, http.StatusNoContent, nil)
	}
}

func (s *webService) clearBasket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		userUID := mux.Vars(r)["userUID"]

		err := s.service.clearBasket(c, userUID)
		if err != nil {
			responseWriter.WriteError(c, w, 1, err)
			return
		}

		responseWriter.WriteHal(c, w, http.StatusNoContent, nil)
	}
}

func (s *webService) basketRepresentation(c context.Context, basket Basket) basketapi.Basket {
	representation := basketapi.Basket{
		ID:    basket.UID,
		Items: make([]basketapi.BasketItem, 0, len(basket.Items)),
		Links: map[string]basketapi.HalLink{
			"self":  {Href: basketURL(basket.UID), Title: "basket"},
			"items": {Href: itemsURL(basket.UID), Title: "items"},
		},
	}

	// Previews are only embedded on the item resources themselves, not
	// on the full-basket representation
	for _, item := range basket.ListItems() {
		representation.Items = append(representation.Items, s.itemRepresentation(c, basket.UID, item, false))
	}

	return representation
}

func (s *webService) itemRepresentation(c context.Context, userUID string, item BasketItem, includeEmbedded bool) basketapi.BasketItem {
	representation := basketapi.BasketItem{
		ProductUID: item.ProductUID,
		Quantity:   item.Quantity,
		Links: map[string]basketapi.HalLink{
			"self": {Href: itemURL(userUID, item.ProductUID), Title: "basket-item"},
		},
	}

	if includeEmbedded {
		preview, err := s.previewer.GetProductPreview(c, item.ProductUID)
		if err != nil {
			s.logger.Log(c, userUID, mylog.SeverityWarn, "Error fetching preview of product %s: %s", item.ProductUID, err)
		} else {
			representation.Embedded = map[string]interface{}{
				"product": preview,
			}
		}
	}

	return representation
}

func basketURL(userUID string) string {
	return fmt.Sprintf("/api/users/%s/basket", userUID)
}

func itemsURL(userUID string) string {
	return fmt.Sprintf("/api/users/%s/basket/items", userUID)
}

func itemURL(userUID string, productUID string) string {
	return fmt.Sprintf("/api/users/%s/basket/items/%s", userUID, productUID)
}
