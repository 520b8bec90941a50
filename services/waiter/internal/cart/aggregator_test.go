package cart

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/appetiteclub/tableside/pkg/pos"
)

func TestComputeScenario(t *testing.T) {
	container := 7
	idx := IndexContainers([]pos.Container{{ID: 7, Name: "Tarrina", Price: dec("1.00")}})

	c := New()
	c.Add(recipe(1, "10.00", nil))
	c.Add(recipe(1, "10.00", nil))
	c.Add(recipe(2, "5.50", &container))
	c.Update(1, Update{IsTakeaway: boolPtr(true)})

	totals := Compute(c.Items(), idx)

	if !totals.Food.Equal(dec("25.50")) {
		t.Errorf("Food = %s, want 25.50", totals.Food)
	}
	if !totals.Container.Equal(dec("1.00")) {
		t.Errorf("Container = %s, want 1.00", totals.Container)
	}
	if !totals.Grand.Equal(dec("26.50")) {
		t.Errorf("Grand = %s, want 26.50", totals.Grand)
	}
}

func TestContainerTotal(t *testing.T) {
	withContainer := 3
	missing := 99
	idx := IndexContainers([]pos.Container{{ID: 3, Price: dec("0.75")}})

	tests := []struct {
		name  string
		items []LineItem
		want  string
	}{
		{
			name:  "emptyCart",
			items: nil,
			want:  "0",
		},
		{
			name: "dineInIgnored",
			items: []LineItem{
				{Recipe: recipe(1, "4.00", &withContainer), Quantity: 2, TotalPrice: dec("8.00")},
			},
			want: "0",
		},
		{
			name: "takeawayWithoutContainer",
			items: []LineItem{
				{Recipe: recipe(1, "4.00", nil), Quantity: 2, IsTakeaway: true, TotalPrice: dec("8.00")},
			},
			want: "0",
		},
		{
			name: "takeawayScaledByQuantity",
			items: []LineItem{
				{Recipe: recipe(1, "4.00", &withContainer), Quantity: 3, IsTakeaway: true, TotalPrice: dec("12.00")},
			},
			want: "2.25",
		},
		{
			name: "unknownContainer",
			items: []LineItem{
				{Recipe: recipe(1, "4.00", &missing), Quantity: 1, IsTakeaway: true, TotalPrice: dec("4.00")},
			},
			want: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ContainerTotal(tt.items, idx)
			if !got.Equal(dec(tt.want)) {
				t.Errorf("ContainerTotal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestGrandTotalIsSumOfParts(t *testing.T) {
	container := 1
	idx := IndexContainers([]pos.Container{{ID: 1, Price: dec("0.10")}})

	c := New()
	for i := 0; i < 10; i++ {
		c.Add(recipe(100+i, "0.10", &container))
		c.Update(i, Update{IsTakeaway: boolPtr(i%2 == 0), Quantity: intPtr(i + 1)})
	}

	items := c.Items()
	grand := GrandTotal(items, idx)
	sum := FoodTotal(items).Add(ContainerTotal(items, idx))
	if !grand.Equal(sum) {
		t.Errorf("GrandTotal() = %s, want %s", grand, sum)
	}
	if !FoodTotal(items).Equal(dec("5.50")) {
		t.Errorf("FoodTotal() = %s, want exact 5.50", FoodTotal(items))
	}
}

func TestTogglingTakeawayRemovesOnlyThatContribution(t *testing.T) {
	container := 2
	idx := IndexContainers([]pos.Container{{ID: 2, Price: dec("1.50")}})

	c := New()
	c.Add(recipe(1, "3.00", &container))
	c.Update(0, Update{IsTakeaway: boolPtr(true)})
	c.Add(recipe(2, "4.00", &container))
	c.Update(1, Update{IsTakeaway: boolPtr(true)})

	if got := ContainerTotal(c.Items(), idx); !got.Equal(dec("3.00")) {
		t.Fatalf("ContainerTotal() = %s, want 3.00", got)
	}

	c.Update(0, Update{IsTakeaway: boolPtr(false)})

	items := c.Items()
	if got := ContainerTotal(items, idx); !got.Equal(dec("1.50")) {
		t.Errorf("ContainerTotal() = %s, want 1.50", got)
	}
	if !items[1].IsTakeaway {
		t.Error("toggling one line changed another")
	}
}

func TestEditedOrderRoundTrip(t *testing.T) {
	container := 4
	idx := IndexContainers([]pos.Container{{ID: 4, Price: dec("0.50")}})
	order := pos.Order{
		ID:         12,
		GrandTotal: decimal.NewNullDecimal(dec("23.00")),
		Items: []pos.OrderItem{
			{Recipe: recipe(1, "9.00", nil), Quantity: 2, UnitPrice: dec("9.00"), TotalPrice: dec("18.00")},
			{Recipe: recipe(2, "4.50", &container), Quantity: 1, IsTakeaway: true, UnitPrice: dec("4.50"), TotalPrice: dec("4.50")},
		},
	}

	c := FromOrder(order)

	if got := GrandTotal(c.Items(), idx); !got.Equal(order.Total()) {
		t.Errorf("GrandTotal() = %s, want stored %s", got, order.Total())
	}
}

func TestTotalsJSONUsesTwoDecimals(t *testing.T) {
	c := New()
	c.Add(pos.Recipe{ID: 1, BasePrice: decimal.RequireFromString("12.5")})
	c.Increment(0)

	raw, err := json.Marshal(struct {
		Items  []LineItem `json:"items"`
		Totals Totals     `json:"totals"`
	}{c.Items(), Compute(c.Items(), ContainerIndex{})})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	for _, want := range []string{
		`"unit_price":"12.50"`,
		`"total_price":"25.00"`,
		`"food_total":"25.00"`,
		`"container_total":"0.00"`,
		`"grand_total":"25.00"`,
		`"quantity":2`,
	} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("JSON missing %s: %s", want, raw)
		}
	}
}
