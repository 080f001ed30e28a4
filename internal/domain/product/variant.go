// internal/domain/product/variant.go
package product

import (
	"errors"
	"fmt"

	"github.com/your-org/sweets-storefront/internal/domain/cart"
	"github.com/your-org/sweets-storefront/internal/infrastructure/commerce"
)

var (
	ErrVariantRequired = errors.New("select a variant before adding to cart")
	ErrUnknownVariant  = errors.New("variant does not belong to this product")
)

// SelectVariant returns the variant to add for itemID. A product without
// variants yields nil; a single variant is selected implicitly.
func SelectVariant(p *commerce.Product, itemID int) (*commerce.Item, error) {
	if len(p.Items) == 0 {
		if itemID != 0 {
			return nil, ErrUnknownVariant
		}
		return nil, nil
	}

	if itemID == 0 {
		if len(p.Items) == 1 {
			return &p.Items[0], nil
		}
		return nil, ErrVariantRequired
	}

	for i := range p.Items {
		if p.Items[i].ID == itemID {
			return &p.Items[i], nil
		}
	}
	return nil, ErrUnknownVariant
}

// ResolveEntity maps a product view selection to the cart entity to post
func ResolveEntity(p *commerce.Product, itemID int) (cart.Entity, error) {
	item, err := SelectVariant(p, itemID)
	if err != nil {
		return cart.Entity{}, err
	}

	if item == nil {
		return cart.Entity{
			ContentType: commerce.ContentTypeProduct,
			ObjectID:    p.ID,
			Title:       p.Title,
		}, nil
	}

	return cart.Entity{
		ContentType: commerce.ContentTypeItem,
		ObjectID:    item.ID,
		Title:       fmt.Sprintf("%s (%dg)", p.Title, item.Quantity),
	}, nil
}
