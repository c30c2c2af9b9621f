package views

import "github.com/jacentio/recipes/model"

type kindLink struct {
	Kind model.Kind
}

type homeBody struct {
	Kinds []kindLink
}

type cell struct {
	Text string
	Href string
}

type row struct {
	ID    int64
	Cells []cell
}

type listBody struct {
	Kind    model.Kind
	Headers []string
	Rows    []row
	Loading bool
}

type detailBody struct {
	Kind   model.Kind
	ID     int64
	Found  bool
	Fields []labeled
}

type labeled struct {
	Label string
	Value cell
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

type formField struct {
	Name     string
	Label    string
	Type     string
	Value    string
	Error    string
	Required bool
	TextArea bool
	Select   bool
	Options  []option
}

type editBody struct {
	Kind     model.Kind
	ID       int64
	Mode     string
	Fields   []formField
	Updating bool
	Disabled bool
}

type deleteBody struct {
	Kind       model.Kind
	ID         int64
	Found      bool
	CanCascade bool
}
