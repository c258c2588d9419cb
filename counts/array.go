package counts

import (
	"fmt"
	"slices"
)

// All keeps an axis when passed to Slice.
const All = -1

// Reader is the read side shared by *Array and View.
type Reader interface {
	Shape() []int
	Size() int
	Values() []int64
}

// layout is the strided addressing shared by Array and View.
type layout struct {
	data   []int64
	shape  []int
	stride []int
	offset int
}

func rowMajor(shape []int) []int {
	stride := make([]int, len(shape))
	s := 1
	for i := len(shape) - 1; i >= 0; i-- {
		stride[i] = s
		s *= shape[i]
	}
	return stride
}

func sizeOf(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

func (l *layout) pos(idx []int) int {
	if len(idx) != len(l.shape) {
		panic(fmt.Sprintf("counts: got %d indices for %d-d array", len(idx), len(l.shape)))
	}
	p := l.offset
	for i, x := range idx {
		if x < 0 || x >= l.shape[i] {
			panic(fmt.Sprintf("counts: index %d out of range [0, %d) on axis %d", x, l.shape[i], i))
		}
		p += x * l.stride[i]
	}
	return p
}

// each calls fn with the buffer position of every element in row-major
// traversal order of the current view.
func (l *layout) each(fn func(p int)) {
	switch len(l.shape) {
	case 0:
		fn(l.offset)
		return
	case 1:
		for i := 0; i < l.shape[0]; i++ {
			fn(l.offset + i*l.stride[0])
		}
		return
	}
	if sizeOf(l.shape) == 0 {
		return
	}
	idx := make([]int, len(l.shape))
	p := l.offset
	for {
		fn(p)
		ax := len(l.shape) - 1
		for ; ax >= 0; ax-- {
			idx[ax]++
			p += l.stride[ax]
			if idx[ax] < l.shape[ax] {
				break
			}
			p -= idx[ax] * l.stride[ax]
			idx[ax] = 0
		}
		if ax < 0 {
			return
		}
	}
}

func (l *layout) slice(idx []int) layout {
	if len(idx) > len(l.shape) {
		panic(fmt.Sprintf("counts: got %d slice indices for %d-d array", len(idx), len(l.shape)))
	}
	out := layout{data: l.data, offset: l.offset}
	for i := range l.shape {
		x := All
		if i < len(idx) {
			x = idx[i]
		}
		if x == All {
			out.shape = append(out.shape, l.shape[i])
			out.stride = append(out.stride, l.stride[i])
			continue
		}
		if x < 0 || x >= l.shape[i] {
			panic(fmt.Sprintf("counts: slice index %d out of range [0, %d) on axis %d", x, l.shape[i], i))
		}
		out.offset += x * l.stride[i]
	}
	return out
}

func (l *layout) values() []int64 {
	out := make([]int64, 0, sizeOf(l.shape))
	l.each(func(p int) { out = append(out, l.data[p]) })
	return out
}

// Array is an owned, mutable count array.
type Array struct {
	layout
}

// Alloc returns a zeroed row-major array of the given shape.
func Alloc(shape ...int) *Array {
	for _, d := range shape {
		if d < 0 {
			panic(fmt.Sprintf("counts: negative dimension in shape %v", shape))
		}
	}
	return &Array{layout{
		data:   make([]int64, sizeOf(shape)),
		shape:  slices.Clone(shape),
		stride: rowMajor(shape),
	}}
}

// FromSlice wraps data as a row-major array. The array takes ownership of
// data.
func FromSlice(data []int64, shape ...int) (*Array, error) {
	if sizeOf(shape) != len(data) {
		return nil, fmt.Errorf("counts: %d values do not fill shape %v", len(data), shape)
	}
	return &Array{layout{
		data:   data,
		shape:  slices.Clone(shape),
		stride: rowMajor(shape),
	}}, nil
}

// Shape returns the array shape.
func (a *Array) Shape() []int { return slices.Clone(a.shape) }

// Size returns the number of elements.
func (a *Array) Size() int { return sizeOf(a.shape) }

// Get returns the element at idx.
func (a *Array) Get(idx ...int) int64 { return a.data[a.pos(idx)] }

// Set stores v at idx.
func (a *Array) Set(v int64, idx ...int) { a.data[a.pos(idx)] = v }

// Increment adds by to the element at idx.
func (a *Array) Increment(by int64, idx ...int) { a.data[a.pos(idx)] += by }

// Fill sets every element to v.
func (a *Array) Fill(v int64) {
	a.each(func(p int) { a.data[p] = v })
}

// Values copies the elements in traversal order.
func (a *Array) Values() []int64 { return a.values() }

// Slice returns a read-only view. Pass All to keep an axis; a concrete index
// fixes that axis and drops it. Missing trailing indices keep their axes.
func (a *Array) Slice(idx ...int) View {
	return View{a.slice(idx)}
}

// SliceMut is Slice for the owner: the result shares a's buffer and writes
// through to it.
func (a *Array) SliceMut(idx ...int) *Array {
	return &Array{a.slice(idx)}
}

// View returns a read-only view of the whole array.
func (a *Array) View() View {
	return View{a.layout}
}

// CumulativeSum replaces each element with the running sum of the
// elements before and including it, in traversal order of the current view.
// Per-column sums over a 2-d array need one call per SliceMut column.
func (a *Array) CumulativeSum() {
	var acc int64
	a.each(func(p int) {
		acc += a.data[p]
		a.data[p] = acc
	})
}

// AddInPlace adds o element-wise into a.
func (a *Array) AddInPlace(o Reader) error {
	if !slices.Equal(a.shape, o.Shape()) {
		return &ShapeMismatchError{Left: a.Shape(), Right: o.Shape()}
	}
	vs := o.Values()
	i := 0
	a.each(func(p int) {
		a.data[p] += vs[i]
		i++
	})
	return nil
}

// View is a read-only window into an Array.
type View struct {
	layout
}

// Shape returns the view shape.
func (v View) Shape() []int { return slices.Clone(v.shape) }

// Size returns the number of elements.
func (v View) Size() int { return sizeOf(v.shape) }

// Get returns the element at idx.
func (v View) Get(idx ...int) int64 { return v.data[v.pos(idx)] }

// Values copies the elements in traversal order.
func (v View) Values() []int64 { return v.values() }

// Slice narrows the view further.
func (v View) Slice(idx ...int) View { return View{v.slice(idx)} }

// Clone copies the view into a new owned array.
func (v View) Clone() *Array {
	a, _ := FromSlice(v.values(), v.shape...)
	return a
}

// Add returns a+b as a new array.
func Add(a, b Reader) (*Array, error) {
	return combine(a, b, func(x, y int64) int64 { return x + y })
}

// Sub returns a-b as a new array.
func Sub(a, b Reader) (*Array, error) {
	return combine(a, b, func(x, y int64) int64 { return x - y })
}

func combine(a, b Reader, op func(x, y int64) int64) (*Array, error) {
	as, bs := a.Shape(), b.Shape()
	if !slices.Equal(as, bs) {
		return nil, &ShapeMismatchError{Left: as, Right: bs}
	}
	out := a.Values()
	for i, y := range b.Values() {
		out[i] = op(out[i], y)
	}
	return FromSlice(out, as...)
}
