package whatsapp

import (
	"fmt"
	"net/url"
	"strings"

	"fooddirect/internal/domain"
	qrcode "github.com/skip2/go-qrcode"
)

// Builder renders orders as WhatsApp checkout messages and deep links
// pointing at the restaurant's number.
type Builder struct {
	restaurantPhone string
	restaurantName  string
}

func NewBuilder(restaurantPhone, restaurantName string) *Builder {
	return &Builder{
		restaurantPhone: sanitizePhone(restaurantPhone),
		restaurantName:  restaurantName,
	}
}

// Message renders the order as the checkout text the customer sends.
func (b *Builder) Message(o domain.Order) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "New order %s\n", o.Code)
	if b.restaurantName != "" {
		fmt.Fprintf(&sb, "%s\n", b.restaurantName)
	}
	fmt.Fprintf(&sb, "\n%s (%s)\n", o.CustomerInfo.Name, o.CustomerInfo.PhoneNumber)
	switch o.Type {
	case domain.FulfillmentDelivery:
		fmt.Fprintf(&sb, "Delivery to: %s\n", o.CustomerInfo.Address)
	case domain.FulfillmentPickup:
		if o.CustomerInfo.PickupTime != "" {
			fmt.Fprintf(&sb, "Pickup at: %s\n", o.CustomerInfo.PickupTime)
		} else {
			sb.WriteString("Pickup\n")
		}
	case domain.FulfillmentDineIn:
		fmt.Fprintf(&sb, "Table: %s\n", o.CustomerInfo.TableNumber)
	}

	sb.WriteString("\nItems:\n")
	for _, item := range o.Items {
		fmt.Fprintf(&sb, "- %dx %s  %s\n", item.Quantity, item.Name, formatCents(item.LineTotalCents))
		if item.Note != "" {
			fmt.Fprintf(&sb, "  note: %s\n", item.Note)
		}
	}

	fmt.Fprintf(&sb, "\nSubtotal: %s\n", formatCents(o.SubtotalCents))
	if o.DeliveryFeeCents > 0 {
		fmt.Fprintf(&sb, "Delivery fee: %s\n", formatCents(o.DeliveryFeeCents))
	}
	if o.DiscountCents > 0 {
		code := ""
		if o.Coupon != nil {
			code = " (" + o.Coupon.Code + ")"
		}
		fmt.Fprintf(&sb, "Discount%s: -%s\n", code, formatCents(o.DiscountCents))
	}
	fmt.Fprintf(&sb, "Total: %s\n", formatCents(o.TotalCents))
	return sb.String()
}

// DeepLink builds the wa.me link that opens WhatsApp with the order message
// prefilled.
func (b *Builder) DeepLink(o domain.Order) string {
	return fmt.Sprintf("https://wa.me/%s?text=%s", b.restaurantPhone, url.QueryEscape(b.Message(o)))
}

// QRCode renders the deep link as a PNG.
func (b *Builder) QRCode(o domain.Order, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(b.DeepLink(o), qrcode.Medium, size)
}

func sanitizePhone(phone string) string {
	var sb strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func formatCents(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
