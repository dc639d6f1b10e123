package vm

import "jvmlet/internal/vmerr"

// ObjectID and ArrayID are the opaque monotonic handles spec §3/§9
// mandates in place of pointers: never reclaimed, never reused.
type ObjectID int
type ArrayID int

// ObjectRecord is one ObjectMap entry (spec §3): a class tag, a field
// table keyed by interned field-name id (each value a two-slot pair so
// Long/Double fields are stored uniformly with single-slot ones), and
// an initialization flag. Both new and anewarray's eager element
// allocation leave Initialized false; nothing in the engine reads it.
type ObjectRecord struct {
	ClassNameID int
	Fields      map[int][2]Item
	Initialized bool
}

// ArrayKind tags the ArrayMap variant (spec §3: Primitive | Array | Custom).
type ArrayKind int

const (
	ArrayPrimitive ArrayKind = iota
	ArrayOfArrays
	ArrayOfObjects
)

// ArrayRecord is one ArrayMap entry.
type ArrayRecord struct {
	Kind      ArrayKind
	Elements  [][2]Item  // ArrayPrimitive
	Nested    []ArrayID  // ArrayOfArrays
	Objects   []ObjectID // ArrayOfObjects
	ElemDescr string     // element descriptor, for nested default-value materialization
}

func (r *ArrayRecord) Length() int {
	switch r.Kind {
	case ArrayPrimitive:
		return len(r.Elements)
	case ArrayOfArrays:
		return len(r.Nested)
	default:
		return len(r.Objects)
	}
}

// staticKey identifies one StaticFields entry: (class_name_id, field_name_id).
type staticKey struct {
	ClassNameID int
	FieldNameID int
}

// Heap owns the ObjectMap, ArrayMap, and StaticFields (spec §3). Per
// spec §5, these are exclusively owned and mutated by the one execution
// context; no synchronization is needed since the engine is single-threaded.
type Heap struct {
	objects map[ObjectID]*ObjectRecord
	arrays  map[ArrayID]*ArrayRecord
	statics map[staticKey][2]Item

	nextObjectID ObjectID
	nextArrayID  ArrayID
}

func NewHeap() *Heap {
	return &Heap{
		objects: make(map[ObjectID]*ObjectRecord),
		arrays:  make(map[ArrayID]*ArrayRecord),
		statics: make(map[staticKey][2]Item),
	}
}

// NewObject materializes a fresh Objectref with one field-map entry per
// declared field, each valued per defaultPair(descriptor) (spec §4.8 "new").
func (h *Heap) NewObject(classNameID int, fieldNameIDs []int, fieldDescriptors []string) ObjectID {
	fields := make(map[int][2]Item, len(fieldNameIDs))
	for i, nameID := range fieldNameIDs {
		fields[nameID] = defaultPair(fieldDescriptors[i])
	}
	id := h.nextObjectID
	h.nextObjectID++
	h.objects[id] = &ObjectRecord{ClassNameID: classNameID, Fields: fields}
	return id
}

func (h *Heap) Object(id ObjectID) (*ObjectRecord, error) {
	obj, ok := h.objects[id]
	if !ok {
		return nil, vmerr.State("heap", "object_id %d does not exist", id)
	}
	return obj, nil
}

// NewPrimitiveArray allocates a length-element Primitive array whose
// elements default per elemDescriptor (newarray, spec §4.8).
func (h *Heap) NewPrimitiveArray(elemDescriptor string, length int) (ArrayID, error) {
	if length < 0 {
		return 0, vmerr.State("heap", "negative array length %d", length)
	}
	elems := make([][2]Item, length)
	def := defaultPair(elemDescriptor)
	for i := range elems {
		elems[i] = def
	}
	id := h.nextArrayID
	h.nextArrayID++
	h.arrays[id] = &ArrayRecord{Kind: ArrayPrimitive, Elements: elems, ElemDescr: elemDescriptor}
	return id, nil
}

// NewObjectArray pre-allocates length objects of classNameID into the
// ObjectMap and wraps their ids in an ArrayOfObjects (anewarray, spec §4.8).
func (h *Heap) NewObjectArray(classNameID int, length int) (ArrayID, error) {
	if length < 0 {
		return 0, vmerr.State("heap", "negative array length %d", length)
	}
	ids := make([]ObjectID, length)
	for i := range ids {
		oid := h.nextObjectID
		h.nextObjectID++
		h.objects[oid] = &ObjectRecord{ClassNameID: classNameID, Fields: map[int][2]Item{}}
		ids[i] = oid
	}
	id := h.nextArrayID
	h.nextArrayID++
	h.arrays[id] = &ArrayRecord{Kind: ArrayOfObjects, Objects: ids}
	return id, nil
}

// NewNestedArray wraps a set of already-built child array ids
// (multianewarray's recursive construction, spec §4.8).
func (h *Heap) NewNestedArray(children []ArrayID, elemDescriptor string) ArrayID {
	id := h.nextArrayID
	h.nextArrayID++
	h.arrays[id] = &ArrayRecord{Kind: ArrayOfArrays, Nested: children, ElemDescr: elemDescriptor}
	return id
}

func (h *Heap) Array(id ArrayID) (*ArrayRecord, error) {
	arr, ok := h.arrays[id]
	if !ok {
		return nil, vmerr.State("heap", "array_id %d does not exist", id)
	}
	return arr, nil
}

func (h *Heap) GetStatic(classNameID, fieldNameID int) [2]Item {
	return h.statics[staticKey{classNameID, fieldNameID}]
}

func (h *Heap) SetStatic(classNameID, fieldNameID int, v [2]Item) {
	h.statics[staticKey{classNameID, fieldNameID}] = v
}

// EnsureStaticDefault registers a static field with its default value
// if it is not already present, without overwriting a value a
// previously-run <clinit> may have already assigned (spec §4.6).
func (h *Heap) EnsureStaticDefault(classNameID, fieldNameID int, descriptor string) {
	key := staticKey{classNameID, fieldNameID}
	if _, ok := h.statics[key]; !ok {
		h.statics[key] = defaultPair(descriptor)
	}
}
