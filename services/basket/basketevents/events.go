package basketevents

const (
	TopicName = "basket"

	basketItemAddedName   = TopicName + ".item.added"
	basketItemUpdatedName = TopicName + ".item.updated"
	basketItemDeletedName = TopicName + ".item.deleted"
	basketClearedName     = TopicName + ".cleared"
)

type BasketItemAdded struct {
	UserUID    string
	ProductUID string
	Quantity   int
}

func (e BasketItemAdded) GetEventTypeName() string {
	return basketItemAddedName
}

func (e BasketItemAdded) GetAggregateName() string {
	return e.UserUID
}

type BasketItemUpdated struct {
	UserUID    string
	ProductUID string
	Quantity   int
}

func (e BasketItemUpdated) GetEventTypeName() string {
	return basketItemUpdatedName
}

func (e BasketItemUpdated) GetAggregateName() string {
	return e.UserUID
}

type BasketItemDeleted struct {
	UserUID    string
	ProductUID string
}

func (e BasketItemDeleted) GetEventTypeName() string {
	return basketItemDeletedName
}

func (e BasketItemDeleted) GetAggregateName() string {
	return e.UserUID
}

type BasketCleared struct {
	UserUID string
}

func (e BasketCleared) GetEventTypeName() string {
	return basketClearedName
}

func (e BasketCleared) GetAggregateName() string {
	return e.UserUID
}
