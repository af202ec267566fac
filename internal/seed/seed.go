package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	invdomain "github.com/kariemSeiam/Hvar-Hub/internal/inventory/domain"
	"gorm.io/gorm"
)

type catalogProduct struct {
	sku      string
	nameAr   string
	nameEn   string
	category string
}

type catalogPart struct {
	sku      string
	nameAr   string
	nameEn   string
	partType string
}

var demoProducts = []catalogProduct{
	{sku: "WASH-AUTO-7KG", nameAr: "غسالة أوتوماتيك 7 كجم", nameEn: "Automatic Washer 7kg", category: "washers"},
	{sku: "FRIDGE-NF-350", nameAr: "ثلاجة نوفروست 350 لتر", nameEn: "No-Frost Fridge 350L", category: "fridges"},
	{sku: "OVEN-GAS-60", nameAr: "بوتاجاز 60 سم", nameEn: "Gas Cooker 60cm", category: "cookers"},
}

var demoParts = []catalogPart{
	{sku: "PART-WASH-PUMP", nameAr: "طلمبة غسالة", nameEn: "Washer Drain Pump", partType: "pump"},
	{sku: "PART-FRIDGE-THERM", nameAr: "ثرموستات ثلاجة", nameEn: "Fridge Thermostat", partType: "thermostat"},
	{sku: "PART-OVEN-VALVE", nameAr: "صمام أمان بوتاجاز", nameEn: "Cooker Safety Valve", partType: "valve"},
}

// EnsureCatalog seeds a small demo catalog so a fresh install has items to
// attach service actions to. Existing SKUs are left untouched.
func EnsureCatalog(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		for _, item := range demoProducts {
			var count int64
			if err := tx.Model(&invdomain.Product{}).Where("sku = ?", item.sku).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			product := invdomain.Product{
				ID:            node.Generate(),
				SKU:           item.sku,
				NameAr:        item.nameAr,
				NameEn:        item.nameEn,
				Category:      item.category,
				AlertQuantity: 10,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := tx.Create(&product).Error; err != nil {
				return err
			}
		}

		for _, item := range demoParts {
			var count int64
			if err := tx.Model(&invdomain.Part{}).Where("sku = ?", item.sku).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			part := invdomain.Part{
				ID:            node.Generate(),
				SKU:           item.sku,
				NameAr:        item.nameAr,
				NameEn:        item.nameEn,
				PartType:      item.partType,
				AlertQuantity: 10,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := tx.Create(&part).Error; err != nil {
				return err
			}
		}

		return nil
	})
}
