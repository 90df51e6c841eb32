package domain

type Severity string

const (
	SeverityDefault Severity = "default"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

type Notice struct {
	Severity Severity
	Message  string
}

const (
	MsgLoginFirst      = "Please login first"
	MsgAddedToCart     = "Product has been added to cart successfully."
	MsgProductDeleted  = "Product is deleted"
	MsgConfirmDelete   = "Are you sure you want to delete this product?"
	MsgUnexpectedError = "Something went wrong, please try again."
)

type CacheTag string

const (
	TagCart     CacheTag = "cart"
	TagProducts CacheTag = "products"
)

// A CacheInvalidation is the fact that cached results under Tags are stale.
//
// Origin identifies the storefront process that made the change.
type CacheInvalidation struct {
	Origin     string
	Tags       []CacheTag
	OccurredAt int64
}
