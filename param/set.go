package param

import (
	"fmt"
	"slices"

	"github.com/sw965/omw/encoding/gobx"
	"github.com/sw965/sparnn/tensor"
	"golang.org/x/exp/maps"
)

// Set groups parameter values by name.
type Set[T tensor.Float] map[string]*tensor.Dense[T]

func (s Set[T]) Add(p Parameter[T]) error {
	if _, ok := s[p.Name]; ok {
		return fmt.Errorf("param: duplicate parameter name %q", p.Name)
	}
	s[p.Name] = p.Value
	return nil
}

func (s Set[T]) Get(name string) (Parameter[T], bool) {
	v, ok := s[name]
	return Parameter[T]{Name: name, Value: v}, ok
}

// Names returns the parameter names in ascending order.
func (s Set[T]) Names() []string {
	names := maps.Keys(s)
	slices.Sort(names)
	return names
}

func (s Set[T]) Save(path string) error {
	return gobx.Save(&s, path)
}

func LoadSet[T tensor.Float](path string) (Set[T], error) {
	return gobx.Load[Set[T]](path)
}
