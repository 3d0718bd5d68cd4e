package domain

import "github.com/google/uuid"

// Concept is a coded vocabulary entry. Concepts are base-layer records: they
// soft-delete in place and carry no version chain.
type Concept struct {
	BaseRecord

	Mnemonic  string
	ClassKey  uuid.UUID
	StatusKey uuid.UUID
	// IsSystemConcept protects bootstrap vocabulary from edits by anyone but
	// the system principal.
	IsSystemConcept bool
}

// ConceptClass keys for stub creation.
var (
	ConceptClassOther  = uuid.MustParse("0d6b3439-c9be-4480-af39-eeb457c052d0")
	ConceptClassStatus = uuid.MustParse("54b93182-fc19-47a2-82c6-089fd70a4f45")
	ConceptClassStub   = uuid.MustParse("68f85bb5-300a-4f8b-b1f6-8b06e1f1c9b4")
)

// NewConceptStub returns the creatable stub used when a referenced mnemonic
// is absent locally.
func NewConceptStub(mnemonic string) Concept {
	return Concept{
		BaseRecord: BaseRecord{Key: uuid.New()},
		Mnemonic:   mnemonic,
		ClassKey:   ConceptClassStub,
		StatusKey:  StatusNew,
	}
}
