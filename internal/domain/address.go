package domain

type Address struct {
	ID         int64
	UserID     int64
	Line1      string
	Line2      string
	City       string
	PostalCode string
}
