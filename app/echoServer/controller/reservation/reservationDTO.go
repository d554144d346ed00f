package reservation

type CreateReservationReq struct {
	ProductSlug  string `json:"product_slug" validate:"required"`
	BookingType  string `json:"booking_type" validate:"required,oneof=daily weekend sunday slot"`
	SlotID       *int64 `json:"slot_id,omitempty"`
	EventDate    string `json:"event_date,omitempty"`
	DeliveryDate string `json:"delivery_date,omitempty"`
	PickupDate   string `json:"pickup_date,omitempty"`
	PromoCode    string `json:"promo_code,omitempty"`

	CustomerEmail string `json:"customer_email" validate:"required,email"`
	CustomerName  string `json:"customer_name" validate:"required"`
	CustomerPhone string `json:"customer_phone,omitempty"`
}
