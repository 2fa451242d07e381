// Package analytics implements the sales-insight use cases: aggregated sales
// statistics and the AI sales assistant built on top of them.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/damianpacheco/facturacion-arca/internal/core/analytics"
)

// Assistant is the chat-completion capability the sales assistant delegates
// to.
type Assistant interface {
	ChatText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// AssistantError wraps a chat-backend failure so handlers can map it to an
// upstream error.
type AssistantError struct {
	Err error
}

func (e *AssistantError) Error() string {
	return fmt.Sprintf("error del asistente de IA: %v", e.Err)
}

func (e *AssistantError) Unwrap() error { return e.Err }

// NotConfiguredMessage is the chat answer when no API key is configured.
const NotConfiguredMessage = "El asistente de IA no está configurado. Agregá tu API key en la configuración."

const rankingLimit = 5

// Service computes sales statistics and answers questions about them.
// A nil assistant disables the chat backend without disabling statistics.
type Service struct {
	repo      analytics.Repository
	assistant Assistant
	log       *slog.Logger
}

// NewService creates the sales-insight service.
func NewService(repo analytics.Repository, assistant Assistant, log *slog.Logger) *Service {
	return &Service{repo: repo, assistant: assistant, log: log}
}

// WeekdayRow is one day of the per-weekday sales ranking.
type WeekdayRow struct {
	Day   string          `json:"dia"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"cantidad"`
}

// RecentRow is one row of the latest-invoices listing.
type RecentRow struct {
	Number   string          `json:"numero"`
	Customer string          `json:"cliente"`
	Total    decimal.Decimal `json:"total"`
	Date     string          `json:"fecha"`
}

// SalesStats is the aggregated snapshot the assistant reasons over.
type SalesStats struct {
	TotalInvoices     int                       `json:"total_facturas"`
	MonthSales        decimal.Decimal           `json:"ventas_mes"`
	MonthInvoices     int                       `json:"facturas_mes"`
	PrevMonthSales    decimal.Decimal           `json:"ventas_mes_anterior"`
	PrevMonthInvoices int                       `json:"facturas_mes_anterior"`
	WeekSales         decimal.Decimal           `json:"ventas_semana"`
	WeekInvoices      int                       `json:"facturas_semana"`
	AvgTicket         decimal.Decimal           `json:"ticket_promedio_mes"`
	TopCustomers      []analytics.CustomerSales `json:"top_clientes"`
	TopProducts       []analytics.ProductSales  `json:"top_productos"`
	WeekdaySales      []WeekdayRow              `json:"ventas_por_dia"`
	RecentInvoices    []RecentRow               `json:"ultimas_facturas"`
}

// statsWindows holds the date boundaries of one statistics snapshot.
type statsWindows struct {
	Today            time.Time
	StartOfMonth     time.Time
	StartOfLastMonth time.Time
	EndOfLastMonth   time.Time
	StartOfWeek      time.Time
	Last30Days       time.Time
}

// windowsFor computes the aggregation windows for a given day. Weeks start
// on Monday.
func windowsFor(today time.Time) statsWindows {
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	startOfMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())

	return statsWindows{
		Today:            day,
		StartOfMonth:     startOfMonth,
		StartOfLastMonth: startOfMonth.AddDate(0, -1, 0),
		EndOfLastMonth:   startOfMonth.AddDate(0, 0, -1),
		StartOfWeek:      day.AddDate(0, 0, -((int(day.Weekday()) + 6) % 7)),
		Last30Days:       day.AddDate(0, 0, -30),
	}
}

var weekdayNames = [7]string{"Domingo", "Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado"}

// Stats builds the sales snapshot: month, previous month and week totals,
// customer/product rankings, per-weekday sales over the last 30 days and the
// latest invoices.
func (s *Service) Stats(ctx context.Context) (*SalesStats, error) {
	return s.statsAt(ctx, time.Now())
}

func (s *Service) statsAt(ctx context.Context, now time.Time) (*SalesStats, error) {
	w := windowsFor(now)

	total, err := s.repo.CountInvoices(ctx)
	if err != nil {
		return nil, fmt.Errorf("count invoices: %w", err)
	}

	month, err := s.repo.SalesInRange(ctx, w.StartOfMonth, nil)
	if err != nil {
		return nil, fmt.Errorf("month sales: %w", err)
	}
	prevMonth, err := s.repo.SalesInRange(ctx, w.StartOfLastMonth, &w.EndOfLastMonth)
	if err != nil {
		return nil, fmt.Errorf("previous month sales: %w", err)
	}
	week, err := s.repo.SalesInRange(ctx, w.StartOfWeek, nil)
	if err != nil {
		return nil, fmt.Errorf("week sales: %w", err)
	}

	topCustomers, err := s.repo.TopCustomers(ctx, w.StartOfMonth, rankingLimit)
	if err != nil {
		return nil, fmt.Errorf("top customers: %w", err)
	}
	topProducts, err := s.repo.TopProducts(ctx, w.StartOfMonth, rankingLimit)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	byWeekday, err := s.repo.SalesByWeekday(ctx, w.Last30Days)
	if err != nil {
		return nil, fmt.Errorf("sales by weekday: %w", err)
	}
	recent, err := s.repo.RecentInvoices(ctx, rankingLimit)
	if err != nil {
		return nil, fmt.Errorf("recent invoices: %w", err)
	}

	stats := &SalesStats{
		TotalInvoices:     total,
		MonthSales:        month.Total,
		MonthInvoices:     month.Count,
		PrevMonthSales:    prevMonth.Total,
		PrevMonthInvoices: prevMonth.Count,
		WeekSales:         week.Total,
		WeekInvoices:      week.Count,
		TopCustomers:      topCustomers,
		TopProducts:       topProducts,
		WeekdaySales:      make([]WeekdayRow, 0, len(byWeekday)),
		RecentInvoices:    make([]RecentRow, 0, len(recent)),
	}

	if month.Count > 0 {
		stats.AvgTicket = month.Total.DivRound(decimal.NewFromInt(int64(month.Count)), 2)
	}

	for _, ws := range byWeekday {
		name := ""
		if ws.Weekday >= 0 && ws.Weekday < len(weekdayNames) {
			name = weekdayNames[ws.Weekday]
		}
		stats.WeekdaySales = append(stats.WeekdaySales, WeekdayRow{
			Day:   name,
			Total: ws.Total,
			Count: ws.Count,
		})
	}

	for _, ri := range recent {
		stats.RecentInvoices = append(stats.RecentInvoices, RecentRow{
			Number:   ri.Number,
			Customer: ri.Customer,
			Total:    ri.Total,
			Date:     ri.Date.Format("2006-01-02"),
		})
	}

	return stats, nil
}

// Chat answers a business question with the sales snapshot as context. When
// no chat backend is configured it returns a friendly explanation instead of
// an error.
func (s *Service) Chat(ctx context.Context, question string) (string, error) {
	if s.assistant == nil {
		return NotConfiguredMessage, nil
	}

	now := time.Now()
	stats, err := s.statsAt(ctx, now)
	if err != nil {
		return "", err
	}

	answer, err := s.assistant.ChatText(ctx, buildSystemPrompt(stats, now), question)
	if err != nil {
		return "", &AssistantError{Err: err}
	}
	return answer, nil
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func buildSystemPrompt(stats *SalesStats, now time.Time) string {
	var b strings.Builder

	b.WriteString("Sos un asistente de análisis de ventas para una aplicación de facturación argentina.\n")
	b.WriteString("Tu rol es ayudar al usuario a entender cómo van sus ventas y darle recomendaciones útiles.\n\n")

	fmt.Fprintf(&b, "DATOS ACTUALES DEL NEGOCIO:\n- Fecha actual: %s\n- Total de facturas emitidas: %d\n\n",
		now.Format("02/01/2006"), stats.TotalInvoices)

	fmt.Fprintf(&b, "VENTAS DEL MES ACTUAL:\n- Total vendido: %s\n- Cantidad de facturas: %d\n- Ticket promedio: %s\n\n",
		money(stats.MonthSales), stats.MonthInvoices, money(stats.AvgTicket))

	fmt.Fprintf(&b, "VENTAS DEL MES ANTERIOR:\n- Total vendido: %s\n- Cantidad de facturas: %d\n\n",
		money(stats.PrevMonthSales), stats.PrevMonthInvoices)

	fmt.Fprintf(&b, "VENTAS DE ESTA SEMANA:\n- Total vendido: %s\n- Cantidad de facturas: %d\n\n",
		money(stats.WeekSales), stats.WeekInvoices)

	b.WriteString("TOP 5 CLIENTES DEL MES:\n")
	if len(stats.TopCustomers) == 0 {
		b.WriteString("- No hay datos\n")
	}
	for _, c := range stats.TopCustomers {
		fmt.Fprintf(&b, "- %s: %s (%d facturas)\n", c.Name, money(c.Total), c.Count)
	}

	b.WriteString("\nTOP 5 PRODUCTOS/SERVICIOS MÁS VENDIDOS:\n")
	if len(stats.TopProducts) == 0 {
		b.WriteString("- No hay datos\n")
	}
	for _, p := range stats.TopProducts {
		fmt.Fprintf(&b, "- %s: %s (%s unidades)\n", p.Description, money(p.Total), p.Quantity)
	}

	b.WriteString("\nVENTAS POR DÍA DE LA SEMANA (últimos 30 días):\n")
	if len(stats.WeekdaySales) == 0 {
		b.WriteString("- No hay datos\n")
	}
	for _, d := range stats.WeekdaySales {
		fmt.Fprintf(&b, "- %s: %s (%d facturas)\n", d.Day, money(d.Total), d.Count)
	}

	b.WriteString("\nÚLTIMAS 5 FACTURAS:\n")
	if len(stats.RecentInvoices) == 0 {
		b.WriteString("- No hay facturas\n")
	}
	for _, f := range stats.RecentInvoices {
		fmt.Fprintf(&b, "- %s - %s: %s (%s)\n", f.Number, f.Customer, money(f.Total), f.Date)
	}

	b.WriteString(`
INSTRUCCIONES:
- Respondé en español argentino, de forma concisa y útil
- Usá los datos reales proporcionados arriba
- Si no hay suficientes datos, indicalo amablemente
- Dá recomendaciones concretas y accionables cuando sea posible
- Sé breve pero completo (máximo 3-4 párrafos)
- Los montos están en pesos argentinos (ARS)`)

	return b.String()
}
