// Package render turns an automation type plus tracking metadata into a
// subject and body. Rendering is a collaborator of the engine: a failure
// here aborts the send attempt the same way a provider failure would.
package render

import (
	"fmt"

	"github.com/bloomhaus/mailflow/internal/model"
)

// Email is a rendered message ready for delivery.
type Email struct {
	Subject  string
	HTMLBody string
	TextBody string
}

// Renderer produces the subject and body for one automation email.
type Renderer interface {
	Render(t model.AutomationType, meta model.Metadata) (Email, error)
}

// CatalogRenderer is the built-in renderer with one template per automation
// type. Real storefront templates live in the template service; this covers
// every type the engine can schedule so the engine never depends on it.
type CatalogRenderer struct {
	StoreName string
}

// NewCatalogRenderer creates a CatalogRenderer for the given store.
func NewCatalogRenderer(storeName string) *CatalogRenderer {
	if storeName == "" {
		storeName = "Bloomhaus"
	}
	return &CatalogRenderer{StoreName: storeName}
}

func (r *CatalogRenderer) Render(t model.AutomationType, meta model.Metadata) (Email, error) {
	name := meta.Customer.Name
	if name == "" {
		name = "there"
	}

	var subject, text string
	switch t {
	case model.TypeWelcome:
		subject = fmt.Sprintf("Welcome to %s!", r.StoreName)
		text = fmt.Sprintf("Hi %s,\n\nThanks for joining %s. Your plants are in good hands.\n\n- The %s team", name, r.StoreName, r.StoreName)
	case model.TypeAbandonedCart1:
		subject = "You left something behind"
		text = fmt.Sprintf("Hi %s,\n\nYour cart is still waiting for you%s.\n\n- The %s team", name, cartTotalLine(meta), r.StoreName)
	case model.TypeAbandonedCart2:
		subject = "Still thinking it over?"
		text = fmt.Sprintf("Hi %s,\n\nYour cart%s expires soon. Come back and finish checking out.\n\n- The %s team", name, cartTotalLine(meta), r.StoreName)
	case model.TypeOrderConfirmation:
		subject = fmt.Sprintf("Your %s order is confirmed", r.StoreName)
		text = fmt.Sprintf("Hi %s,\n\nWe've received your order%s and it's being prepared.\n\n- The %s team", name, orderIDLine(meta), r.StoreName)
	case model.TypeCareGuide:
		subject = "Caring for your new plants"
		text = fmt.Sprintf("Hi %s,\n\nHere's how to keep your new arrivals thriving.\n\n- The %s team", name, r.StoreName)
	case model.TypeReviewRequest:
		subject = "How are your plants doing?"
		text = fmt.Sprintf("Hi %s,\n\nWe'd love to hear what you think of your recent order.\n\n- The %s team", name, r.StoreName)
	case model.TypeReengagement:
		subject = "We miss you!"
		text = fmt.Sprintf("Hi %s,\n\nIt's been a while. Here's what's new at %s.\n\n- The %s team", name, r.StoreName, r.StoreName)
	default:
		return Email{}, fmt.Errorf("no template for automation type %q", t)
	}

	return Email{
		Subject:  subject,
		TextBody: text,
		HTMLBody: fmt.Sprintf("<html><body><pre style=\"font-family:inherit\">%s</pre></body></html>", text),
	}, nil
}

func cartTotalLine(meta model.Metadata) string {
	if total, ok := meta.Event["cart_total"].(float64); ok && total > 0 {
		return fmt.Sprintf(" ($%.2f)", total)
	}
	return ""
}

func orderIDLine(meta model.Metadata) string {
	if id, ok := meta.Event["order_id"].(string); ok && id != "" {
		return fmt.Sprintf(" #%s", id)
	}
	return ""
}
