package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mugo-bistro/mugo/internal/session"
)

// FieldName is the form input name for the field e addresses, e.g.
// "tabs.0.groups.1.items.2.price".
func FieldName(e session.Edit) string {
	switch e.Field {
	case session.FieldTabID, session.FieldTabLabel, session.FieldTabTitle:
		return fmt.Sprintf("tabs.%d.%s", e.Tab, e.Field)
	case session.FieldGroupLabel:
		return fmt.Sprintf("tabs.%d.groups.%d.label", e.Tab, e.Group)
	default:
		return fmt.Sprintf("tabs.%d.groups.%d.items.%d.%s", e.Tab, e.Group, e.Item,
			strings.TrimPrefix(string(e.Field), "item."))
	}
}

// ParseFieldName is the inverse of FieldName. ok is false for names that
// are not menu fields.
func ParseFieldName(name string) (e session.Edit, ok bool) {
	parts := strings.Split(name, ".")
	if len(parts) < 3 || parts[0] != "tabs" {
		return e, false
	}
	var err error
	if e.Tab, err = strconv.Atoi(parts[1]); err != nil {
		return e, false
	}

	switch len(parts) {
	case 3:
		switch f := session.Field(parts[2]); f {
		case session.FieldTabID, session.FieldTabLabel, session.FieldTabTitle:
			e.Field = f
			return e, true
		}
	case 5:
		if parts[2] != "groups" || parts[4] != "label" {
			return e, false
		}
		if e.Group, err = strconv.Atoi(parts[3]); err != nil {
			return e, false
		}
		e.Field = session.FieldGroupLabel
		return e, true
	case 7:
		if parts[2] != "groups" || parts[4] != "items" {
			return e, false
		}
		if e.Group, err = strconv.Atoi(parts[3]); err != nil {
			return e, false
		}
		if e.Item, err = strconv.Atoi(parts[5]); err != nil {
			return e, false
		}
		switch parts[6] {
		case "name", "desc", "price":
			e.Field = session.Field("item." + parts[6])
			return e, true
		}
	}
	return e, false
}

// OpKind is an admin form action.
type OpKind string

const (
	OpSelect    OpKind = "select"
	OpAddTab    OpKind = "add-tab"
	OpDelTab    OpKind = "del-tab"
	OpAddGroup  OpKind = "add-group"
	OpDelGroup  OpKind = "del-group"
	OpToggle    OpKind = "toggle"
	OpAddItem   OpKind = "add-item"
	OpDelItem   OpKind = "del-item"
	OpRevert    OpKind = "revert"
	OpApplyJSON OpKind = "apply-json"
	OpSave      OpKind = "save"
)

// arity is the number of indices each op carries.
var arity = map[OpKind]int{
	OpSelect:    1,
	OpAddTab:    0,
	OpDelTab:    1,
	OpAddGroup:  1,
	OpDelGroup:  2,
	OpToggle:    2,
	OpAddItem:   2,
	OpDelItem:   3,
	OpRevert:    1,
	OpApplyJSON: 0,
	OpSave:      0,
}

// Op is a parsed form action such as "del-item:0:1:2".
type Op struct {
	Kind  OpKind
	Tab   int
	Group int
	Item  int
}

func (o Op) String() string {
	idx := []int{o.Tab, o.Group, o.Item}[:arity[o.Kind]]
	s := string(o.Kind)
	for _, i := range idx {
		s += ":" + strconv.Itoa(i)
	}
	return s
}

// ParseOp reads the value of an op button.
func ParseOp(s string) (Op, error) {
	parts := strings.Split(s, ":")
	kind := OpKind(parts[0])
	n, known := arity[kind]
	if !known {
		return Op{}, fmt.Errorf("unknown op %q", parts[0])
	}
	if len(parts)-1 != n {
		return Op{}, fmt.Errorf("op %s takes %d indices, got %d", kind, n, len(parts)-1)
	}
	op := Op{Kind: kind}
	dst := []*int{&op.Tab, &op.Group, &op.Item}
	for i, p := range parts[1:] {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return Op{}, fmt.Errorf("op %s: bad index %q", kind, p)
		}
		*dst[i] = v
	}
	return op, nil
}
