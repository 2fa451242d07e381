package analytics

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/damianpacheco/facturacion-arca/internal/core/analytics"
	"github.com/damianpacheco/facturacion-arca/internal/testutil"
)

type assistantFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)

func (f assistantFunc) ChatText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f(ctx, systemPrompt, userPrompt)
}

func decStr(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWindowsFor(t *testing.T) {
	tests := []struct {
		name          string
		today         time.Time
		wantMonth     time.Time
		wantLastFrom  time.Time
		wantLastTo    time.Time
		wantWeekStart time.Time
	}{
		{
			name:          "mid month friday",
			today:         date(2026, time.August, 28),
			wantMonth:     date(2026, time.August, 1),
			wantLastFrom:  date(2026, time.July, 1),
			wantLastTo:    date(2026, time.July, 31),
			wantWeekStart: date(2026, time.August, 24),
		},
		{
			name:          "january rolls into previous year",
			today:         date(2026, time.January, 15),
			wantMonth:     date(2026, time.January, 1),
			wantLastFrom:  date(2025, time.December, 1),
			wantLastTo:    date(2025, time.December, 31),
			wantWeekStart: date(2026, time.January, 12),
		},
		{
			name:          "monday starts its own week",
			today:         date(2026, time.August, 24),
			wantMonth:     date(2026, time.August, 1),
			wantLastFrom:  date(2026, time.July, 1),
			wantLastTo:    date(2026, time.July, 31),
			wantWeekStart: date(2026, time.August, 24),
		},
		{
			name:          "sunday belongs to the monday week",
			today:         date(2026, time.August, 30),
			wantMonth:     date(2026, time.August, 1),
			wantLastFrom:  date(2026, time.July, 1),
			wantLastTo:    date(2026, time.July, 31),
			wantWeekStart: date(2026, time.August, 24),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := windowsFor(tt.today)
			if !w.StartOfMonth.Equal(tt.wantMonth) {
				t.Errorf("StartOfMonth = %v, want %v", w.StartOfMonth, tt.wantMonth)
			}
			if !w.StartOfLastMonth.Equal(tt.wantLastFrom) {
				t.Errorf("StartOfLastMonth = %v, want %v", w.StartOfLastMonth, tt.wantLastFrom)
			}
			if !w.EndOfLastMonth.Equal(tt.wantLastTo) {
				t.Errorf("EndOfLastMonth = %v, want %v", w.EndOfLastMonth, tt.wantLastTo)
			}
			if !w.StartOfWeek.Equal(tt.wantWeekStart) {
				t.Errorf("StartOfWeek = %v, want %v", w.StartOfWeek, tt.wantWeekStart)
			}
			if !w.Last30Days.Equal(w.Today.AddDate(0, 0, -30)) {
				t.Errorf("Last30Days = %v", w.Last30Days)
			}
		})
	}
}

func statsRepo() *testutil.MockStatsRepository {
	return &testutil.MockStatsRepository{
		CountInvoicesFunc: func(ctx context.Context) (int, error) { return 7, nil },
		SalesInRangeFunc: func(ctx context.Context, from time.Time, to *time.Time) (analytics.PeriodSales, error) {
			switch {
			case to != nil:
				return analytics.PeriodSales{Total: decStr("500"), Count: 2}, nil
			case from.Day() == 1:
				return analytics.PeriodSales{Total: decStr("1000"), Count: 3}, nil
			default:
				return analytics.PeriodSales{Total: decStr("250"), Count: 1}, nil
			}
		},
		TopCustomersFunc: func(ctx context.Context, from time.Time, limit int) ([]analytics.CustomerSales, error) {
			return []analytics.CustomerSales{{Name: "ACME S.A.", Total: decStr("600"), Count: 2}}, nil
		},
		TopProductsFunc: func(ctx context.Context, from time.Time, limit int) ([]analytics.ProductSales, error) {
			return []analytics.ProductSales{{Description: "Remera", Quantity: decStr("5"), Total: decStr("800")}}, nil
		},
		SalesByWeekdayFunc: func(ctx context.Context, from time.Time) ([]analytics.WeekdaySales, error) {
			return []analytics.WeekdaySales{
				{Weekday: 5, Total: decStr("700"), Count: 2},
				{Weekday: 1, Total: decStr("300"), Count: 1},
			}, nil
		},
		RecentInvoicesFunc: func(ctx context.Context, limit int) ([]analytics.RecentInvoice, error) {
			return []analytics.RecentInvoice{
				{Number: "0001-00000042", Customer: "ACME S.A.", Total: decStr("121"), Date: date(2026, time.August, 27)},
			}, nil
		},
	}
}

func TestStats(t *testing.T) {
	svc := NewService(statsRepo(), nil, testutil.NewNullLogger())

	stats, err := svc.statsAt(context.Background(), date(2026, time.August, 28))
	if err != nil {
		t.Fatalf("statsAt: %v", err)
	}

	if stats.TotalInvoices != 7 {
		t.Errorf("TotalInvoices = %d, want 7", stats.TotalInvoices)
	}
	if !stats.MonthSales.Equal(decStr("1000")) || stats.MonthInvoices != 3 {
		t.Errorf("month = %s/%d", stats.MonthSales, stats.MonthInvoices)
	}
	if !stats.PrevMonthSales.Equal(decStr("500")) || stats.PrevMonthInvoices != 2 {
		t.Errorf("previous month = %s/%d", stats.PrevMonthSales, stats.PrevMonthInvoices)
	}
	if !stats.WeekSales.Equal(decStr("250")) || stats.WeekInvoices != 1 {
		t.Errorf("week = %s/%d", stats.WeekSales, stats.WeekInvoices)
	}
	if !stats.AvgTicket.Equal(decStr("333.33")) {
		t.Errorf("AvgTicket = %s, want 333.33", stats.AvgTicket)
	}

	if len(stats.WeekdaySales) != 2 || stats.WeekdaySales[0].Day != "Viernes" || stats.WeekdaySales[1].Day != "Lunes" {
		t.Errorf("WeekdaySales = %+v", stats.WeekdaySales)
	}
	if len(stats.RecentInvoices) != 1 || stats.RecentInvoices[0].Date != "2026-08-27" {
		t.Errorf("RecentInvoices = %+v", stats.RecentInvoices)
	}
}

func TestStatsWithoutInvoices(t *testing.T) {
	svc := NewService(&testutil.MockStatsRepository{}, nil, testutil.NewNullLogger())

	stats, err := svc.statsAt(context.Background(), date(2026, time.August, 28))
	if err != nil {
		t.Fatalf("statsAt: %v", err)
	}

	if !stats.AvgTicket.IsZero() {
		t.Errorf("AvgTicket = %s, want 0", stats.AvgTicket)
	}
	if len(stats.WeekdaySales) != 0 || len(stats.RecentInvoices) != 0 {
		t.Errorf("expected empty rankings, got %+v / %+v", stats.WeekdaySales, stats.RecentInvoices)
	}
}

func TestChatNotConfigured(t *testing.T) {
	repoCalled := false
	repo := &testutil.MockStatsRepository{
		CountInvoicesFunc: func(ctx context.Context) (int, error) {
			repoCalled = true
			return 0, nil
		},
	}
	svc := NewService(repo, nil, testutil.NewNullLogger())

	answer, err := svc.Chat(context.Background(), "¿Cómo van las ventas?")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if answer != NotConfiguredMessage {
		t.Errorf("answer = %q", answer)
	}
	if repoCalled {
		t.Error("stats repository queried without a configured assistant")
	}
}

func TestChatBuildsPromptFromStats(t *testing.T) {
	var gotSystem, gotUser string
	assistant := assistantFunc(func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
		gotSystem, gotUser = systemPrompt, userPrompt
		return "Las ventas del mes crecieron.", nil
	})
	svc := NewService(statsRepo(), assistant, testutil.NewNullLogger())

	answer, err := svc.Chat(context.Background(), "¿Cómo van las ventas?")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if answer != "Las ventas del mes crecieron." {
		t.Errorf("answer = %q", answer)
	}
	if gotUser != "¿Cómo van las ventas?" {
		t.Errorf("user prompt = %q", gotUser)
	}

	for _, want := range []string{
		"Total de facturas emitidas: 7",
		"Total vendido: $1000.00",
		"ACME S.A.: $600.00 (2 facturas)",
		"Remera: $800.00 (5 unidades)",
		"0001-00000042",
	} {
		if !strings.Contains(gotSystem, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
}

func TestChatAssistantFailure(t *testing.T) {
	assistant := assistantFunc(func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
		return "", errors.New("rate limited")
	})
	svc := NewService(statsRepo(), assistant, testutil.NewNullLogger())

	_, err := svc.Chat(context.Background(), "¿Cómo van las ventas?")
	var assistantErr *AssistantError
	if !errors.As(err, &assistantErr) {
		t.Fatalf("err = %v, want *AssistantError", err)
	}
}
