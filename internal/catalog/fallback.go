package catalog

import (
	"fmt"
	"strings"
	"time"
)

const fallbackImageBase = "https://storage.googleapis.com/othoba-catalog/fallback/"

type fallbackItem struct {
	name     string
	desc     string
	colors   []string
	price    string
	category string
	brand    string
	specs    map[string]string
}

var fallbackItems = []fallbackItem{
	{
		name:     "Samsung Galaxy A54 5G Smartphone",
		desc:     "6.4-inch Super AMOLED display with FHD+ resolution, Exynos 1380 processor, 50MP main camera with OIS, 32MP front camera, 5000mAh battery with 25W fast charging",
		colors:   []string{"Awesome Blue", "Awesome Violet", "Awesome White", "Awesome Graphite"},
		price:    "৳ 42,999",
		category: "Mobile Phones",
		brand:    "Samsung",
		specs: map[string]string{
			"display": "6.4-inch Super AMOLED", "processor": "Exynos 1380", "ram": "8GB",
			"storage": "128GB/256GB", "camera": "50MP + 12MP + 5MP", "battery": "5000mAh",
		},
	},
	{
		name:     "Apple iPhone 14",
		desc:     "6.1-inch Super Retina XDR display, A15 Bionic chip with 5-core GPU, dual-camera system with 12MP Main and Ultra Wide cameras, Cinematic mode, 128GB storage",
		colors:   []string{"Blue", "Purple", "Midnight", "Starlight", "Product Red"},
		price:    "৳ 89,999",
		category: "Mobile Phones",
		brand:    "Apple",
		specs: map[string]string{
			"display": "6.1-inch Super Retina XDR", "processor": "A15 Bionic", "ram": "6GB",
			"storage": "128GB/256GB/512GB", "camera": "12MP + 12MP", "battery": "3279mAh",
		},
	},
	{
		name:     "Xiaomi Redmi Note 12 Pro",
		desc:     "6.67-inch AMOLED display with 120Hz refresh rate, MediaTek Dimensity 1080 processor, 50MP triple camera system, 5000mAh battery with 67W turbo charging",
		colors:   []string{"Graphite Gray", "Sky Blue", "Polar White"},
		price:    "৳ 28,999",
		category: "Mobile Phones",
		brand:    "Xiaomi",
	},
	{
		name:     "Dell Inspiron 15 3000 Laptop",
		desc:     "15.6-inch HD anti-glare display, Intel Core i3-1115G4 processor, 4GB DDR4 RAM, 1TB HDD storage, Intel UHD Graphics, Windows 11 Home",
		colors:   []string{"Black", "Silver"},
		price:    "৳ 45,000",
		category: "Laptops",
		brand:    "Dell",
		specs: map[string]string{
			"display": "15.6-inch HD", "processor": "Intel Core i3-1115G4", "ram": "4GB DDR4",
			"storage": "1TB HDD", "graphics": "Intel UHD Graphics", "os": "Windows 11",
		},
	},
	{
		name:     "HP Pavilion Gaming Laptop",
		desc:     "15.6-inch FHD IPS display, Intel Core i5-11400H processor, NVIDIA GeForce GTX 1650 graphics, 8GB DDR4 RAM, 512GB SSD, backlit keyboard",
		colors:   []string{"Shadow Black", "Performance Blue"},
		price:    "৳ 68,500",
		category: "Laptops",
		brand:    "HP",
	},
	{
		name:     "LG 43-inch 4K Smart LED TV",
		desc:     "Ultra HD 4K Smart TV with webOS, HDR10 support, built-in WiFi, Magic Remote, ThinQ AI and 4K upscaler",
		colors:   []string{"Black"},
		price:    "৳ 38,500",
		category: "Television",
		brand:    "LG",
		specs: map[string]string{
			"size": "43 inches", "resolution": "4K Ultra HD (3840x2160)", "smartTV": "webOS",
			"hdr": "HDR10", "connectivity": "WiFi, 3 HDMI, 2 USB",
		},
	},
	{
		name:     "Sony 55-inch BRAVIA XR OLED TV",
		desc:     "OLED 4K Ultra HD Smart Google TV with Cognitive Processor XR, XR OLED Contrast Pro and Acoustic Surface Audio+",
		colors:   []string{"Black"},
		price:    "৳ 185,000",
		category: "Television",
		brand:    "Sony",
	},
	{
		name:     "Sony WH-CH720N Wireless Headphones",
		desc:     "Active noise canceling wireless headphones, 35-hour battery life, quick charge, multipoint Bluetooth 5.2 connection, built-in microphone",
		colors:   []string{"Black", "White", "Blue"},
		price:    "৳ 12,500",
		category: "Audio Accessories",
		brand:    "Sony",
		specs: map[string]string{
			"type": "Over-ear wireless", "noiseCancellation": "Active ANC", "batteryLife": "35 hours",
			"connectivity": "Bluetooth 5.2", "fastCharge": "3 min = 1 hour",
		},
	},
	{
		name:     "JBL Flip 6 Portable Bluetooth Speaker",
		desc:     "JBL Original Pro Sound, IP67 waterproof and dustproof, 12 hours of playtime, JBL PartyBoost",
		colors:   []string{"Black", "Blue", "Red", "Teal", "Gray", "Pink"},
		price:    "৳ 8,999",
		category: "Audio Accessories",
		brand:    "JBL",
	},
	{
		name:     "Realme Buds Air 5 Wireless Earbuds",
		desc:     "True wireless earbuds with 50dB active noise cancellation, 12.4mm dynamic bass driver, 38-hour total playback, Bluetooth 5.3",
		colors:   []string{"Deep Sea Blue", "Arctic White"},
		price:    "৳ 5,499",
		category: "Audio Accessories",
		brand:    "Realme",
	},
	{
		name:     "Canon EOS 1500D DSLR Camera",
		desc:     "24.1MP APS-C CMOS sensor, DIGIC 4+ processor, Full HD video recording, 9-point autofocus, EF-S 18-55mm lens included",
		colors:   []string{"Black"},
		price:    "৳ 38,900",
		category: "Cameras",
		brand:    "Canon",
		specs: map[string]string{
			"sensor": "24.1MP APS-C CMOS", "processor": "DIGIC 4+", "autofocus": "9-point",
			"video": "Full HD 1080p", "lens": "EF-S 18-55mm included",
		},
	},
	{
		name:     "Fujifilm Instax Mini 11 Camera",
		desc:     "Instant camera with automatic exposure, built-in flash, selfie mirror and close-up lens attachment, uses Instax Mini film",
		colors:   []string{"Lilac Purple", "Sky Blue", "Blush Pink", "Ice White", "Charcoal Gray"},
		price:    "৳ 7,500",
		category: "Cameras",
		brand:    "Fujifilm",
	},
	{
		name:     "Walton WWM-AF17H Split AC",
		desc:     "1.5 Ton inverter air conditioner with R32 refrigerant, turbo cooling mode, self-cleaning function and remote control",
		colors:   []string{"White"},
		price:    "৳ 55,000",
		category: "Air Conditioner",
		brand:    "Walton",
		specs: map[string]string{
			"capacity": "1.5 Ton", "type": "Inverter Split AC", "refrigerant": "R32",
			"energyRating": "3 Star", "features": "Turbo Cooling, Self Cleaning",
		},
	},
	{
		name:     "Sharp SJ-EX455P Refrigerator",
		desc:     "420L double door refrigerator with Plasmacluster Ion technology, hybrid cooling system, large vegetable case and door lock",
		colors:   []string{"Silver", "White"},
		price:    "৳ 68,500",
		category: "Refrigerators",
		brand:    "Sharp",
		specs: map[string]string{
			"capacity": "420 Liters", "type": "Double Door", "technology": "Plasmacluster Ion",
			"energyRating": "4 Star", "features": "Hybrid Cooling, Door Lock",
		},
	},
	{
		name:     "Singer Washing Machine 7kg",
		desc:     "Front loading automatic washing machine, 7kg capacity, multiple wash programs, stainless steel drum, child lock",
		colors:   []string{"White", "Silver"},
		price:    "৳ 35,800",
		category: "Washing Machines",
		brand:    "Singer",
	},
	{
		name:     "Philips Air Fryer HD9200",
		desc:     "4.1L air fryer with Rapid Air technology, 200°C temperature control, 60-minute timer, dishwasher safe parts",
		colors:   []string{"Black", "White"},
		price:    "৳ 12,900",
		category: "Kitchen Appliances",
		brand:    "Philips",
	},
	{
		name:     "Miyako Rice Cooker 2.8L",
		desc:     "2.8 liter automatic rice cooker with non-stick inner pot, keep warm function and steam cooking tray",
		colors:   []string{"White", "Silver"},
		price:    "৳ 3,200",
		category: "Kitchen Appliances",
		brand:    "Miyako",
	},
	{
		name:     "HP DeskJet 2320 Printer",
		desc:     "All-in-one color inkjet printer with print, scan and copy, USB 2.0 connectivity, HP Smart app compatible",
		colors:   []string{"White"},
		price:    "৳ 8,500",
		category: "Printers & Scanners",
		brand:    "HP",
		specs: map[string]string{
			"type": "All-in-One Inkjet", "functions": "Print, Scan, Copy",
			"connectivity": "USB 2.0", "compatibility": "Windows, Mac, Mobile",
		},
	},
	{
		name:     "Xiaomi Mi Band 7 Smart Watch",
		desc:     "1.62-inch AMOLED display, 12-day battery life, 110+ workout modes, 5ATM water resistance, heart rate and sleep tracking",
		colors:   []string{"Black", "Orange", "Olive", "Navy Blue"},
		price:    "৳ 4,999",
		category: "Wearables",
		brand:    "Xiaomi",
		specs: map[string]string{
			"display": "1.62-inch AMOLED", "batteryLife": "12 days", "waterResistance": "5ATM",
			"sensors": "Heart Rate, SpO2, Accelerometer", "connectivity": "Bluetooth 5.2",
		},
	},
	{
		name:     "Apple Watch SE 2nd Generation",
		desc:     "Retina display, S8 SiP processor, health sensors, crash detection, water resistant to 50 meters",
		colors:   []string{"Midnight", "Starlight", "Silver"},
		price:    "৳ 32,900",
		category: "Wearables",
		brand:    "Apple",
	},
}

// FallbackSize is the number of records returned by Fallback.
var FallbackSize = len(fallbackItems)

// Fallback returns the hand-authored catalog substituted when live extraction
// fails or stays sparse. Every call returns fresh, equal records.
func Fallback(sourceURL string, now time.Time) []Product {
	out := make([]Product, 0, len(fallbackItems))
	for i, item := range fallbackItems {
		p := Product{
			ID:          fmt.Sprintf("%sfallback_%02d", IDPrefix, i+1),
			Name:        item.name,
			Description: item.desc,
			Images:      []string{fallbackImageBase + slug(item.name) + ".png"},
			Price:       item.price,
			Colors:      append([]string(nil), item.colors...),
			Category:    item.category,
			Brand:       item.brand,
			SourceURL:   sourceURL,
			ScrapedAt:   now,
		}
		if item.specs != nil {
			p.Specifications = make(map[string]string, len(item.specs))
			for k, v := range item.specs {
				p.Specifications[k] = v
			}
		}
		out = append(out, p)
	}
	return out
}

func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
