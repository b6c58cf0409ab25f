package book

import "fmt"

// View is a read-only rendering of a book for API responses.
type View struct {
	ISBN           string   `json:"isbn"`
	Kind           Kind     `json:"kind"`
	Title          string   `json:"title"`
	PublishingYear int      `json:"publishing_year"`
	Price          float64  `json:"price"`
	Sellable       bool     `json:"sellable"`
	FileType       FileType `json:"file_type,omitempty"`
	Stock          *int     `json:"stock,omitempty"`
}

// ViewOf renders b including the details specific to its variant.
func ViewOf(b Book) View {
	v := View{
		ISBN:           b.ISBN(),
		Kind:           b.Kind(),
		Title:          b.Title(),
		PublishingYear: b.PublishingYear(),
		Price:          b.Price(),
		Sellable:       b.Sellable(),
	}

	switch t := b.(type) {
	case *PaperBook:
		stock := t.Stock()
		v.Stock = &stock
	case *ElectronicBook:
		v.FileType = t.FileType()
	case *DemoBook:
	default:
		panic(fmt.Sprintf("book: unknown variant %T", b))
	}
	return v
}

// ViewsOf renders every book in books.
func ViewsOf(books []Book) []View {
	views := make([]View, 0, len(books))
	for _, b := range books {
		views = append(views, ViewOf(b))
	}
	return views
}
