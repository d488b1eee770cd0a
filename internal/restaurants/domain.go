package restaurants

// Address is owned by exactly one restaurant and deleted with it.
type Address struct {
	ID         int64
	City       string
	Street     string
	PostalCode string
}

// Dish belongs to a restaurant and is deleted with it.
type Dish struct {
	ID           int64
	Name         string
	Description  string
	Price        float64
	RestaurantID int64
}

// Restaurant is the aggregate root of the directory.
type Restaurant struct {
	ID            int64
	Name          string
	Description   string
	Category      string
	HasDelivery   bool
	ContactEmail  string
	ContactNumber string
	CreatedByID   *int64
	Address       Address
	Dishes        []Dish
}

// OwnerID returns the creator, nil for restaurants created without an authenticated owner.
func (r Restaurant) OwnerID() *int64 {
	return r.CreatedByID
}
