package basket

import (
	"github.com/basketworks/basketapi/lib/mylog"
	"github.com/basketworks/basketapi/lib/mypublisher"
	"github.com/basketworks/basketapi/lib/mystore"
)

type service struct {
	basketStore mystore.Store[Basket]
	publisher   mypublisher.Publisher
	logger      mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(store mystore.Store[Basket], publisher mypublisher.Publisher, logger mylog.Logger) *service {
	return &service{
		basketStore: store,
		publisher:   publisher,
		logger:      logger,
	}
}
