package listings

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/localharvest/market/internal/images"
	kafkax "github.com/localharvest/market/internal/kafka"
	"github.com/localharvest/market/internal/market"
)

// Publisher is the producer surface Lifecycle needs; satisfied by
// *kafkax.Producer.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Lifecycle owns every seller-side mutation of a listing. The active flag and
// quantity are coupled in exactly one place: a quantity of zero clears
// active, restock sets it. Manual activate/deactivate overrides both.
type Lifecycle struct {
	Store       Store
	Images      images.Store
	Producer    Publisher // listing.deleted events; may be nil
	ServiceName string
}

func (lc *Lifecycle) Create(ctx context.Context, sellerID string, f market.ListingFields, imagePath, thumbPath string) (*market.Listing, error) {
	if verr := Validate(f); verr != nil {
		return nil, verr
	}
	now := time.Now().UTC()
	l := &market.Listing{
		ID:            uuid.NewString(),
		SellerID:      sellerID,
		Name:          f.Name,
		Category:      f.Category,
		Price:         f.Price,
		Unit:          f.Unit,
		Quantity:      f.Quantity,
		Active:        f.Quantity > 0,
		Description:   f.Description,
		ImagePath:     imagePath,
		ThumbnailPath: thumbPath,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := lc.Store.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (lc *Lifecycle) Edit(ctx context.Context, listingID, sellerID string, f market.ListingFields, imagePath, thumbPath string) (*market.Listing, error) {
	l, err := lc.owned(ctx, listingID, sellerID)
	if err != nil {
		return nil, err
	}
	if verr := Validate(f); verr != nil {
		return nil, verr
	}

	oldImage, oldThumb := l.ImagePath, l.ThumbnailPath
	l.Name = f.Name
	l.Category = f.Category
	l.Price = f.Price
	l.Unit = f.Unit
	l.Quantity = f.Quantity
	l.Description = f.Description
	if l.Quantity == 0 {
		l.Active = false
	}
	if imagePath != "" {
		l.ImagePath, l.ThumbnailPath = imagePath, thumbPath
	}
	if err := lc.Store.Update(ctx, l); err != nil {
		return nil, err
	}
	if imagePath != "" && oldImage != "" {
		if err := lc.Images.Delete(ctx, oldImage, oldThumb); err != nil {
			log.Printf("image cleanup %s: %v", listingID, err)
		}
	}
	return l, nil
}

func (lc *Lifecycle) Restock(ctx context.Context, listingID, sellerID string, addQty int) error {
	if addQty <= 0 {
		return &market.ValidationError{Fields: map[string]string{"quantity": "restock quantity must be positive"}}
	}
	if _, err := lc.owned(ctx, listingID, sellerID); err != nil {
		return err
	}
	return lc.Store.Restock(ctx, listingID, addQty)
}

func (lc *Lifecycle) Activate(ctx context.Context, listingID, sellerID string) error {
	return lc.setActive(ctx, listingID, sellerID, true)
}

func (lc *Lifecycle) Deactivate(ctx context.Context, listingID, sellerID string) error {
	return lc.setActive(ctx, listingID, sellerID, false)
}

func (lc *Lifecycle) setActive(ctx context.Context, listingID, sellerID string, active bool) error {
	if _, err := lc.owned(ctx, listingID, sellerID); err != nil {
		return err
	}
	return lc.Store.SetActive(ctx, listingID, active)
}

// Delete removes the listing row for good. Order items keep their snapshot
// prices; nothing references the row after this.
func (lc *Lifecycle) Delete(ctx context.Context, listingID, sellerID string) error {
	l, err := lc.owned(ctx, listingID, sellerID)
	if err != nil {
		return err
	}
	if err := lc.Store.Delete(ctx, listingID); err != nil {
		return err
	}
	if l.ImagePath != "" {
		if err := lc.Images.Delete(ctx, l.ImagePath, l.ThumbnailPath); err != nil {
			log.Printf("image cleanup %s: %v", listingID, err)
		}
	}
	lc.publishDeleted(listingID, sellerID)
	return nil
}

func (lc *Lifecycle) owned(ctx context.Context, listingID, sellerID string) (*market.Listing, error) {
	l, err := lc.Store.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if l.SellerID != sellerID {
		return nil, market.ErrForbidden
	}
	return l, nil
}

func (lc *Lifecycle) publishDeleted(listingID, sellerID string) {
	if lc.Producer == nil {
		return
	}
	ev := market.Envelope{
		EventID:       uuid.NewString(),
		EventType:     market.EventListingDeleted,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      lc.ServiceName,
		CorrelationID: listingID,
		Payload:       kafkax.MustMarshal(market.ListingDeletedPayload{ListingID: listingID, SellerID: sellerID}),
	}
	lc.Producer.Publish(market.PartitionKey(listingID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(market.EventListingDeleted)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
