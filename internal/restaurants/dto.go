package restaurants

// RestaurantDTO is the public representation of a restaurant.
type RestaurantDTO struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	HasDelivery bool      `json:"has_delivery"`
	City        string    `json:"city"`
	Street      string    `json:"street"`
	PostalCode  string    `json:"postal_code"`
	Dishes      []DishDTO `json:"dishes"`
}

// DishDTO is the public representation of a dish.
type DishDTO struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// CreateRestaurantRequest is the payload of POST /api/restaurant.
type CreateRestaurantRequest struct {
	Name          string `json:"name" validate:"required,max=25"`
	Description   string `json:"description"`
	Category      string `json:"category"`
	HasDelivery   bool   `json:"has_delivery"`
	ContactEmail  string `json:"contact_email" validate:"omitempty,email"`
	ContactNumber string `json:"contact_number"`
	City          string `json:"city" validate:"required,max=50"`
	Street        string `json:"street" validate:"required,max=50"`
	PostalCode    string `json:"postal_code"`
}

// UpdateRestaurantRequest is the payload of PUT /api/restaurant/{id}.
type UpdateRestaurantRequest struct {
	Name        string `json:"name" validate:"required,max=25"`
	Description string `json:"description"`
	HasDelivery bool   `json:"has_delivery"`
}

// ListQuery filters, sorts and pages GET /api/restaurant.
type ListQuery struct {
	Search   string `json:"search"`
	Page     int    `json:"page" validate:"gte=1,lte=1000000"`
	PageSize int    `json:"page_size" validate:"oneof=5 10 15"`
	SortBy   string `json:"sort_by" validate:"omitempty,oneof=name description category"`
	SortDir  string `json:"sort_dir" validate:"omitempty,oneof=asc desc"`
}

// Offset returns the number of rows skipped before the page.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// PagedResult is one page of items plus paging metadata.
type PagedResult[T any] struct {
	Items           []T `json:"items"`
	TotalPages      int `json:"total_pages"`
	ItemsFrom       int `json:"items_from"`
	ItemsTo         int `json:"items_to"`
	TotalItemsCount int `json:"total_items_count"`
}

// NewPagedResult computes paging metadata for items taken from a total of total rows.
func NewPagedResult[T any](items []T, total int, q ListQuery) PagedResult[T] {
	if items == nil {
		items = []T{}
	}
	res := PagedResult[T]{Items: items, TotalItemsCount: total}
	if q.PageSize > 0 {
		res.TotalPages = (total + q.PageSize - 1) / q.PageSize
	}
	if len(items) > 0 {
		res.ItemsFrom = q.Offset() + 1
		res.ItemsTo = q.Offset() + len(items)
	}
	return res
}

// ToDTO maps the aggregate to its public representation.
func ToDTO(r Restaurant) RestaurantDTO {
	dto := RestaurantDTO{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		HasDelivery: r.HasDelivery,
		City:        r.Address.City,
		Street:      r.Address.Street,
		PostalCode:  r.Address.PostalCode,
		Dishes:      make([]DishDTO, 0, len(r.Dishes)),
	}
	for _, d := range r.Dishes {
		dto.Dishes = append(dto.Dishes, DishToDTO(d))
	}
	return dto
}

// DishToDTO maps a dish to its public representation.
func DishToDTO(d Dish) DishDTO {
	return DishDTO{ID: d.ID, Name: d.Name, Description: d.Description, Price: d.Price}
}
