package mocks

import (
	"context"
	"errors"

	"github.com/carestack/cdr/pkg/domain"
	"github.com/carestack/cdr/pkg/persistence"
)

type BundleStore struct {
	Impl struct {
		Submit func(context.Context, domain.Principal, domain.Bundle, persistence.Progress) (domain.Bundle, error)
	}
	Calls struct {
		Submit CallLog[struct {
			Principal domain.Principal
			Bundle    domain.Bundle
		}]
	}
}

func NewBundleStore() *BundleStore {
	return &BundleStore{}
}

var _ persistence.BundleStore = &BundleStore{}

func (m *BundleStore) Submit(ctx context.Context, p domain.Principal, b domain.Bundle, progress persistence.Progress) (domain.Bundle, error) {
	m.Calls.Submit = append(m.Calls.Submit, struct {
		Principal domain.Principal
		Bundle    domain.Bundle
	}{Principal: p, Bundle: b})
	if m.Impl.Submit != nil {
		return m.Impl.Submit(ctx, p, b, progress)
	}
	panic(errors.New("it should not be called"))
}
