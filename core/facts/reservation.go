package facts

import (
	"strings"
	"time"
)

// ReservationStatus is the fixed status vocabulary, case-folded.
type ReservationStatus string

const (
	StatusNew                ReservationStatus = "new"
	StatusModified           ReservationStatus = "modified"
	StatusCancelled          ReservationStatus = "cancelled"
	StatusOwnerStay          ReservationStatus = "ownerstay"
	StatusPending            ReservationStatus = "pending"
	StatusAwaitingPayment    ReservationStatus = "awaitingpayment"
	StatusDeclined           ReservationStatus = "declined"
	StatusExpired            ReservationStatus = "expired"
	StatusInquiry            ReservationStatus = "inquiry"
	StatusInquiryPreapproved ReservationStatus = "inquirypreapproved"
	StatusInquiryDenied      ReservationStatus = "inquirydenied"
	StatusInquiryTimedout    ReservationStatus = "inquirytimedout"
	StatusInquiryNotPossible ReservationStatus = "inquirynotpossible"
	StatusUnknown            ReservationStatus = ""
)

// NormalizeStatus case-folds a wire status into the vocabulary. Values
// outside the vocabulary are kept folded so callers can still log them.
func NormalizeStatus(s string) ReservationStatus {
	return ReservationStatus(strings.ToLower(strings.TrimSpace(s)))
}

// NotActive reports the statuses for which nothing may be confirmed.
func (s ReservationStatus) NotActive() bool {
	return s == StatusCancelled || s == StatusExpired || s == StatusDeclined
}

// PaymentOutstanding reports the statuses where payment is incomplete.
func (s ReservationStatus) PaymentOutstanding() bool {
	return s == StatusPending || s == StatusAwaitingPayment
}

// Reservation holds the typed facts extracted from a raw reservation
// payload. All fields are optional.
type Reservation struct {
	GuestFirstName string
	ArrivalDate    *time.Time
	DepartureDate  *time.Time
	Guests         *int
	Status         ReservationStatus
	Currency       string
	TotalPrice     *float64
}

// ExtractReservation normalizes a raw reservation payload. Accepts the
// field-name variants observed across provider responses.
func ExtractReservation(raw map[string]any) Reservation {
	if raw == nil {
		return Reservation{}
	}
	if inner, ok := raw["result"].(map[string]any); ok {
		raw = inner
	}
	return Reservation{
		GuestFirstName: ToString(getMap(raw, "guestFirstName", "guestName")),
		ArrivalDate:    ParseDate(ToString(getMap(raw, "arrivalDate", "checkInDate", "checkIn"))),
		DepartureDate:  ParseDate(ToString(getMap(raw, "departureDate", "checkOutDate", "checkOut"))),
		Guests:         ToInt(getMap(raw, "numberOfGuests", "guestCount")),
		Status:         NormalizeStatus(ToString(raw["status"])),
		Currency:       ToString(raw["currency"]),
		TotalPrice:     ToFloat(raw["totalPrice"]),
	}
}
