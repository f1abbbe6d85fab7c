package httpapi

import (
	"strconv"
	"time"

	"library/internal/catalog"
	"library/internal/checkout"
)

const dateLayout = "2006-01-02"

const (
	maxNameLen        = 100
	maxTitleLen       = 100
	maxDescriptionLen = 1000
)

// ---- requests ----

type saveAuthorRequest struct {
	Name      string `json:"name"`
	BirthDate string `json:"birth_date"`
	Biography string `json:"biography"`
}

// validate returns field-level messages and, when clean, the parsed model.
func (r saveAuthorRequest) validate() (*catalog.Author, map[string][]string) {
	errs := map[string][]string{}
	if r.Name == "" {
		errs["name"] = append(errs["name"], "The name field is required.")
	}
	if len(r.Name) > maxNameLen {
		errs["name"] = append(errs["name"], "The name must not exceed 100 characters.")
	}
	if len(r.Biography) > maxDescriptionLen {
		errs["biography"] = append(errs["biography"], "The biography must not exceed 1000 characters.")
	}
	var birth *time.Time
	if r.BirthDate != "" {
		t, err := time.Parse(dateLayout, r.BirthDate)
		if err != nil {
			errs["birth_date"] = append(errs["birth_date"], "The birth_date must be a valid date (YYYY-MM-DD).")
		} else if t.After(time.Now()) {
			errs["birth_date"] = append(errs["birth_date"], "The birth_date cannot be in the future.")
		} else {
			birth = &t
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return &catalog.Author{Name: r.Name, BirthDate: birth, Biography: r.Biography}, nil
}

type saveBookRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ReleaseDate string `json:"release_date"`
	AuthorID    *int64 `json:"author_id"`
}

func (r saveBookRequest) validate() (*catalog.Book, map[string][]string) {
	errs := map[string][]string{}
	if r.Title == "" {
		errs["title"] = append(errs["title"], "The title field is required.")
	}
	if len(r.Title) > maxTitleLen {
		errs["title"] = append(errs["title"], "The title must not exceed 100 characters.")
	}
	if len(r.Description) > maxDescriptionLen {
		errs["description"] = append(errs["description"], "The description must not exceed 1000 characters.")
	}
	if r.AuthorID == nil {
		errs["author_id"] = append(errs["author_id"], "The author_id field is required.")
	}
	var release *time.Time
	if r.ReleaseDate != "" {
		t, err := time.Parse(dateLayout, r.ReleaseDate)
		if err != nil {
			errs["release_date"] = append(errs["release_date"], "The release_date must be a valid date (YYYY-MM-DD).")
		} else {
			release = &t
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return &catalog.Book{
		Title:       r.Title,
		Description: r.Description,
		ReleaseDate: release,
		AuthorID:    *r.AuthorID,
	}, nil
}

type saveOrderRequest struct {
	Items []saveOrderItem `json:"items"`
}

type saveOrderItem struct {
	BookID   *int64 `json:"book_id"`
	Quantity int    `json:"quantity"`
}

// validate enforces per-item constraints. The non-empty check stays in the
// checkout service, which owns that invariant.
func (r saveOrderRequest) validate(maxQty int) (*checkout.Order, map[string][]string) {
	errs := map[string][]string{}
	order := &checkout.Order{}
	for i, it := range r.Items {
		field := "items[" + strconv.Itoa(i) + "]"
		if it.BookID == nil {
			errs[field+".book_id"] = append(errs[field+".book_id"], "The book_id field is required.")
			continue
		}
		if it.Quantity < 1 || it.Quantity > maxQty {
			errs[field+".quantity"] = append(errs[field+".quantity"],
				"The quantity must be between 1 and "+strconv.Itoa(maxQty)+".")
			continue
		}
		order.Items = append(order.Items, checkout.OrderItem{BookID: *it.BookID, Quantity: it.Quantity})
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return order, nil
}

// ---- responses ----

type authorResponse struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	BirthDate *string        `json:"birth_date"`
	Biography string         `json:"biography"`
	Books     []bookResponse `json:"books,omitempty"`
}

type bookResponse struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ReleaseDate *string `json:"release_date"`
	AuthorID    int64   `json:"author_id"`
	Author      string  `json:"author,omitempty"`
}

type orderResponse struct {
	ID           int64               `json:"id"`
	CheckoutDate time.Time           `json:"checkout_date"`
	Status       string              `json:"status"`
	Items        []orderItemResponse `json:"items"`
}

type orderItemResponse struct {
	BookID   int64  `json:"book_id"`
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
}

func toAuthorResponse(a *catalog.Author, withBooks bool) authorResponse {
	resp := authorResponse{
		ID:        a.ID,
		Name:      a.Name,
		BirthDate: dateOrNil(a.BirthDate),
		Biography: a.Biography,
	}
	if withBooks {
		for i := range a.Books {
			resp.Books = append(resp.Books, toBookResponse(&a.Books[i]))
		}
	}
	return resp
}

func toBookResponse(b *catalog.Book) bookResponse {
	return bookResponse{
		ID:          b.ID,
		Title:       b.Title,
		Description: b.Description,
		ReleaseDate: dateOrNil(b.ReleaseDate),
		AuthorID:    b.AuthorID,
		Author:      b.AuthorName,
	}
}

func toOrderResponse(o *checkout.Order) orderResponse {
	resp := orderResponse{
		ID:           o.ID,
		CheckoutDate: o.CheckoutDate,
		Status:       o.Status.Label(),
		Items:        make([]orderItemResponse, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			BookID:   it.BookID,
			Title:    it.Title,
			Quantity: it.Quantity,
		})
	}
	return resp
}

func dateOrNil(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}
