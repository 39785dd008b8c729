// Package entity defines the financial domain records flowing through the
// pipeline and the contract the store uses to validate them.
package entity

// Type identifies an entity kind in the store and the router.
type Type string

// Entity types
const (
	TypeCustomer        Type = "customer"
	TypeAccount         Type = "account"
	TypeCreditCard      Type = "credit_card"
	TypeLoan            Type = "loan"
	TypeProperty        Type = "property"
	TypeStock           Type = "stock"
	TypeTransaction     Type = "transaction"
	TypeCardTransaction Type = "card_transaction"
	TypeTrade           Type = "trade"
	TypeInstallment     Type = "installment"
)

// ForeignKey declares a reference from one entity to another.
// RequireSubtype, when non-empty, constrains the subtype of the referenced
// entity (a trade may only reference an investment account).
type ForeignKey struct {
	Field          string // referencing field name, e.g. "account_id"
	RefType        Type
	RefID          string
	RequireSubtype string
}

// Entity is implemented by every record the store accepts.
// Entities are immutable once registered.
type Entity interface {
	// EntityType returns the entity kind.
	EntityType() Type

	// EntityID returns the unique identifier within the entity kind.
	EntityID() string

	// ForeignKeys returns every reference this entity declares.
	// Optional references that are unset are omitted.
	ForeignKeys() []ForeignKey

	// Subtype returns the discriminator other entities may constrain on,
	// or "" when the entity kind has no subtypes.
	Subtype() string
}

// Keyed is implemented by event entities partitioned by a parent identifier
// rather than their own ID.
type Keyed interface {
	PartitionKey() string
}

// Key returns the partition key for an entity: the parent identifier for
// keyed event records, the entity's own ID otherwise.
func Key(e Entity) string {
	if k, ok := e.(Keyed); ok {
		return k.PartitionKey()
	}
	return e.EntityID()
}
