package value

import (
	"errors"

	"ravm/internal/ident"
)

// fakeResolver is a minimal Resolver for exercising Quote transparency
// without depending on internal/memory (which would be an import cycle
// from this package's test binary back into value).
type fakeResolver struct {
	store map[string]Value
}

func (r *fakeResolver) FindDataByID(id ident.DataIdentifier) (Value, error) {
	v, ok := r.store[id.Name]
	if !ok {
		return nil, errNotFound
	}
	return v, nil
}

func (r *fakeResolver) UpdateDataByID(id ident.DataIdentifier, v Value) error {
	if _, ok := r.store[id.Name]; !ok {
		return errNotFound
	}
	r.store[id.Name] = v
	return nil
}

var errNotFound = errors.New("not found")

func fakeDataID(name string) ident.DataIdentifier {
	return ident.NewData(name, "TestScope", 0)
}
