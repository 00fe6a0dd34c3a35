package loader

import (
	"github.com/pkg/errors"
)

// daeResolverImpl is the implementation of the daeResolver interface.
type daeResolverImpl struct {
	scanner daeScanner
}

// daeResolver follows id references ("#id") from inputs to the elements that hold
// their data. Every hop re-scans forward from a caller-supplied anchor bookmark,
// since a referenced id can appear before or after the referencing element.
// Resolved ids are not cached. Each call restores the scanner cursor before returning.
type daeResolver interface {
	// ResolveFloatSource reads the float_array of the <source> with the referenced id.
	//
	// Parameters:
	//   - anchor: a bookmark preceding the source, typically the enclosing library
	//   - ref: the source reference, with or without a leading '#'
	//
	// Returns:
	//   - []float32: exactly as many values as the array declares
	//   - error: ErrSourceNotFound, ErrMalformedElement or ErrCountMismatch
	ResolveFloatSource(anchor int, ref string) ([]float32, error)

	// ResolveNameSource reads the Name_array of the <source> with the referenced id.
	//
	// Parameters:
	//   - anchor: a bookmark preceding the source
	//   - ref: the source reference
	//
	// Returns:
	//   - []string: the names
	//   - error: ErrSourceNotFound, ErrMalformedElement or ErrCountMismatch
	ResolveNameSource(anchor int, ref string) ([]string, error)

	// ResolveVertexInputs reads the semantic to source bindings of the <vertices> with the referenced id.
	//
	// Parameters:
	//   - anchor: a bookmark preceding the vertices element
	//   - ref: the vertices reference
	//
	// Returns:
	//   - map[string]string: source references keyed by semantic
	//   - error: ErrSourceNotFound if no such vertices element exists
	ResolveVertexInputs(anchor int, ref string) (map[string]string, error)

	// ResolvePositions follows VERTEX -> vertices -> POSITION -> source and reads the positions.
	//
	// Parameters:
	//   - anchor: a bookmark preceding the geometry
	//   - vertexRef: the source reference of the polylist's VERTEX input
	//
	// Returns:
	//   - []float32: the position floats
	//   - error: ErrSourceNotFound if any hop fails
	ResolvePositions(anchor int, vertexRef string) ([]float32, error)
}

var _ daeResolver = &daeResolverImpl{}

// newDAEResolver creates a resolver sharing the load operation's scanner.
//
// Parameters:
//   - scanner: the scanner of the current load
//
// Returns:
//   - daeResolver: the resolver
func newDAEResolver(scanner daeScanner) daeResolver {
	return &daeResolverImpl{scanner: scanner}
}

func (r *daeResolverImpl) ResolveFloatSource(anchor int, ref string) ([]float32, error) {
	defer r.scanner.Seek(r.scanner.Position())

	count, err := r.seekArray(anchor, ref, "float_array")
	if err != nil {
		return nil, err
	}
	values, err := r.scanner.ReadFloats(count)
	if err != nil {
		return nil, errors.Wrapf(err, "source %q", ref)
	}
	if err := r.expectArrayEnd(ref, count); err != nil {
		return nil, err
	}
	return values, nil
}

func (r *daeResolverImpl) ResolveNameSource(anchor int, ref string) ([]string, error) {
	defer r.scanner.Seek(r.scanner.Position())

	count, err := r.seekArray(anchor, ref, "Name_array")
	if err != nil {
		return nil, err
	}
	names, err := r.scanner.ReadNames(count)
	if err != nil {
		return nil, errors.Wrapf(err, "source %q", ref)
	}
	if err := r.expectArrayEnd(ref, count); err != nil {
		return nil, err
	}
	return names, nil
}

func (r *daeResolverImpl) ResolveVertexInputs(anchor int, ref string) (map[string]string, error) {
	defer r.scanner.Seek(r.scanner.Position())

	if err := r.seekElementByID(anchor, "vertices", ref); err != nil {
		return nil, err
	}

	inputs := make(map[string]string)
	for {
		tag, err := r.scanner.FindChild("input", "vertices", daeMatchName)
		if err != nil {
			break
		}
		semantic, err := daeRequireAttribute(tag, "semantic")
		if err != nil {
			return nil, err
		}
		source, err := daeRequireAttribute(tag, "source")
		if err != nil {
			return nil, err
		}
		inputs[semantic] = source
	}
	return inputs, nil
}

func (r *daeResolverImpl) ResolvePositions(anchor int, vertexRef string) ([]float32, error) {
	inputs, err := r.ResolveVertexInputs(anchor, vertexRef)
	if err != nil {
		return nil, err
	}
	positionRef, ok := inputs["POSITION"]
	if !ok {
		return nil, errors.Wrapf(ErrSourceNotFound, "POSITION input in vertices %q", vertexRef)
	}
	return r.ResolveFloatSource(anchor, positionRef)
}

// seekElementByID positions the scanner just past the opening tag of the element
// with the given name and id, scanning forward from anchor.
func (r *daeResolverImpl) seekElementByID(anchor int, element, ref string) error {
	id := daeStripRef(ref)
	r.scanner.Seek(anchor)
	if err := daeSeekID(r.scanner, element, id); err != nil {
		return errors.Wrapf(ErrSourceNotFound, "<%s id=%q>", element, id)
	}
	return nil
}

// seekArray positions the scanner at the data of the named array inside the source
// with the given id and returns the array's declared count.
func (r *daeResolverImpl) seekArray(anchor int, ref, arrayName string) (int, error) {
	if err := r.seekElementByID(anchor, "source", ref); err != nil {
		return 0, err
	}
	tag, err := r.scanner.FindChild(arrayName, "source", daeMatchName)
	if err != nil {
		return 0, errors.Wrapf(ErrSourceNotFound, "<%s> in source %q", arrayName, ref)
	}
	return daeCountAttribute(tag)
}

// expectArrayEnd fails when the array holds more values than its declared count.
func (r *daeResolverImpl) expectArrayEnd(ref string, count int) error {
	if extra, err := r.scanner.ReadNames(1); err == nil {
		return errors.Wrapf(ErrCountMismatch, "source %q declares %d values but has more (%q)", ref, count, extra[0])
	}
	return nil
}
