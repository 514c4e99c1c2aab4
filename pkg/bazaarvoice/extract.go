package bazaarvoice

// Item is the normalized product record returned to API consumers.
type Item struct {
	ItemName string `json:"item_name"`
	Image    string `json:"image"`
	PageURL  string `json:"page_url"`
	ItemCode string `json:"item_code"`
}

// errorCode is the placeholder item code when a response carries neither a
// model number nor an identifier. Consumers rely on the literal.
const errorCode = "Error"

// itemCodeFn extracts the item code from one result.
type itemCodeFn func(Result) string

// itemCodeSources maps a region's configured item-code source to its
// extraction strategy. Unknown or empty sources fall back to the Id field.
var itemCodeSources = map[string]itemCodeFn{
	"model_numbers": func(r Result) string {
		if len(r.ModelNumbers) == 0 {
			return errorCode
		}
		return r.ModelNumbers[0]
	},
	"id": func(r Result) string {
		if r.ID == "" {
			return errorCode
		}
		return r.ID
	},
}

func itemCode(region Region, r Result) string {
	fn, ok := itemCodeSources[region.ItemCodeSource]
	if !ok {
		fn = itemCodeSources["id"]
	}
	return fn(r)
}

// ExtractAll normalizes every result of a keyword search response.
func ExtractAll(resp *Response, region Region) []Item {
	items := make([]Item, 0, len(resp.Results))
	for _, r := range resp.Results {
		items = append(items, Item{
			ItemName: r.Name,
			Image:    r.ImageURL,
			PageURL:  r.ProductPageURL,
			ItemCode: itemCode(region, r),
		})
	}
	return items
}

// ExtractFirst normalizes only the first result of an ID-filtered lookup.
// An empty response yields no items.
func ExtractFirst(resp *Response, region Region) []Item {
	if len(resp.Results) == 0 {
		return nil
	}
	r := resp.Results[0]
	return []Item{{
		ItemName: r.Name,
		Image:    r.ImageURL,
		PageURL:  r.ProductPageURL,
		ItemCode: itemCode(region, r),
	}}
}
