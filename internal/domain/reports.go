package domain

import "time"

type ReportWindow struct {
	Period string    `json:"period"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

type PaymentMethodSales struct {
	PaymentMethod string `json:"payment_method"`
	Orders        int64  `json:"orders"`
	Total         int64  `json:"total"`
}

type SalesSummary struct {
	Window         ReportWindow         `json:"window"`
	Orders         int64                `json:"orders"`
	GrossSales     int64                `json:"gross_sales"`
	Discounts      int64                `json:"discounts"`
	Refunds        int64                `json:"refunds"`
	NetSales       int64                `json:"net_sales"`
	Gratuity       int64                `json:"gratuity"`
	Tax            int64                `json:"tax"`
	Rounding       int64                `json:"rounding"`
	TotalCollected int64                `json:"total_collected"`
	ByPayment      []PaymentMethodSales `json:"by_payment"`
}

type GrossProfitReport struct {
	Window        ReportWindow `json:"window"`
	Revenue       int64        `json:"revenue"`
	Discounts     int64        `json:"discounts"`
	HPP           int64        `json:"hpp"`
	GrossProfit   int64        `json:"gross_profit"`
	MarginPercent float64      `json:"margin_percent"`
}

// ItemSalesRow is keyed by menu for plain lines and by bundle for bundle lines.
type ItemSalesRow struct {
	MenuID      string `json:"menu_id,omitempty"`
	BundleID    string `json:"bundle_id,omitempty"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Quantity    int64  `json:"quantity"`
	Revenue     int64  `json:"revenue"`
	HPP         int64  `json:"hpp"`
	GrossProfit int64  `json:"gross_profit"`
}

type ItemSalesReport struct {
	Window ReportWindow   `json:"window"`
	Items  []ItemSalesRow `json:"items"`
}

type CategorySalesRow struct {
	Category string `json:"category"`
	Quantity int64  `json:"quantity"`
	Revenue  int64  `json:"revenue"`
}

type CategorySalesReport struct {
	Window     ReportWindow       `json:"window"`
	Categories []CategorySalesRow `json:"categories"`
}

type ModifierSalesRow struct {
	ModifierID string `json:"modifier_id"`
	Name       string `json:"name"`
	Quantity   int64  `json:"quantity"`
	Revenue    int64  `json:"revenue"`
}

type ModifierSalesReport struct {
	Window    ReportWindow       `json:"window"`
	Modifiers []ModifierSalesRow `json:"modifiers"`
}

type PaymentMethodReport struct {
	Window  ReportWindow         `json:"window"`
	Methods []PaymentMethodSales `json:"methods"`
}

type DailyAmount struct {
	Date   string `json:"date"`
	Orders int64  `json:"orders"`
	Amount int64  `json:"amount"`
}

// ChargeReport backs the tax, discount and gratuity reports.
type ChargeReport struct {
	Window ReportWindow  `json:"window"`
	Kind   string        `json:"kind"`
	Orders int64         `json:"orders"`
	Total  int64         `json:"total"`
	ByDay  []DailyAmount `json:"by_day"`
}
