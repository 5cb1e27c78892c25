package postgres

import (
	"github.com/oklog/ulid/v2"
)

// ULIDGenerator mints identifiers for cheques, clearing records, and
// settlement attempts. ULIDs sort by creation time, which keeps the ledger
// index append-friendly.
type ULIDGenerator struct{}

func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{}
}

func (g *ULIDGenerator) Generate() string {
	return ulid.Make().String()
}
