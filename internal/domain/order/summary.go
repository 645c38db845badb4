package order

import (
	"strconv"
	"strings"

	"github.com/xenking/cardapio/internal/domain/cart"
	"github.com/xenking/cardapio/internal/money"
)

// RuleWidth is the number of box-drawing characters in a separator line.
const RuleWidth = 40

// Labels are the fixed captions of the order transcript. Bold markers are
// added by the generator.
type Labels struct {
	Header   string
	Customer string
	Phone    string
	Address  string
	Payment  string
	Items    string
	Size     string
	Price    string
	Quantity string
	Subtotal string
	Total    string
}

// PortugueseLabels returns the default pt-BR captions.
func PortugueseLabels() Labels {
	return Labels{
		Header:   "PEDIDO DO CARDÁPIO DIGITAL",
		Customer: "Cliente:",
		Phone:    "Telefone:",
		Address:  "Endereço:",
		Payment:  "Forma de Pagamento:",
		Items:    "ITENS DO PEDIDO:",
		Size:     "Tamanho:",
		Price:    "Preço:",
		Quantity: "Quantidade:",
		Subtotal: "Subtotal:",
		Total:    "TOTAL:",
	}
}

// GeneratorConfig configures a Generator. Zero fields get pt-BR defaults.
type GeneratorConfig struct {
	Formatter      money.Formatter
	DefaultChannel string
	Labels         Labels
}

// Generator renders order transcripts. It is stateless and safe for
// concurrent use.
type Generator struct {
	fmt            money.Formatter
	defaultChannel string
	labels         Labels
}

// NewGenerator creates a Generator.
func NewGenerator(cfg GeneratorConfig) *Generator {
	if cfg.Formatter == (money.Formatter{}) {
		cfg.Formatter = money.BRL()
	}
	if cfg.Labels == (Labels{}) {
		cfg.Labels = PortugueseLabels()
	}
	return &Generator{
		fmt:            cfg.Formatter,
		defaultChannel: cfg.DefaultChannel,
		labels:         cfg.Labels,
	}
}

// Destination returns the contact channel of the first item, or the
// default channel for an empty cart or a first item without one.
func (g *Generator) Destination(items []cart.LineItem) string {
	if len(items) > 0 && items[0].ContactChannel != "" {
		return items[0].ContactChannel
	}
	return g.defaultChannel
}

// Generate renders items and customer into a transcript. Output depends
// only on its inputs. Customer fields are trimmed; an empty name or
// payment method yields a *ValidationError and no summary.
func (g *Generator) Generate(items []cart.LineItem, c Customer) (*Summary, error) {
	c = c.Normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	l := g.labels
	rule := strings.Repeat("─", RuleWidth)
	total := cart.Subtotal(items)

	var b strings.Builder
	b.WriteString(bold(l.Header) + "\n\n")
	b.WriteString(bold(l.Customer) + " " + c.Name + "\n")
	if c.Phone != "" {
		b.WriteString(bold(l.Phone) + " " + c.Phone + "\n")
	}
	if c.Address != "" {
		b.WriteString(bold(l.Address) + " " + c.Address + "\n")
	}
	b.WriteString(bold(l.Payment) + " " + c.Payment + "\n")
	b.WriteString("\n" + bold(l.Items) + "\n")
	b.WriteString(rule + "\n")

	for _, it := range items {
		b.WriteString("\n" + it.ProductName + "\n")
		b.WriteString(l.Size + " " + it.VariantLabel + " | " + l.Price + " " + g.fmt.Format(it.UnitPrice) + "\n")
		b.WriteString(l.Quantity + " " + strconv.Itoa(it.Quantity) + " | " + l.Subtotal + " " + g.fmt.Format(it.LineTotal()) + "\n")
	}

	b.WriteString("\n" + rule + "\n")
	b.WriteString("\n" + bold(l.Total+" "+g.fmt.Format(total)) + "\n")

	return &Summary{
		Text:        b.String(),
		Destination: g.Destination(items),
		Total:       total,
		ItemCount:   cart.ItemCount(items),
	}, nil
}

func bold(s string) string {
	return "*" + s + "*"
}
