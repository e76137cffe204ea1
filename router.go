package wabridge

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/desfrut/wabridge/catalog"
	"github.com/desfrut/wabridge/metrics"
	"github.com/desfrut/wabridge/store"
)

// Router maps inbound text to a tool invocation using an ordered rule
// table. Rules are evaluated in priority order and the first match wins;
// when none matches, Respond returns ErrNotHandled so the caller can
// defer to the backend.
type Router struct {
	catalog *catalog.Index
	states  *store.StateStore
	logger  *slog.Logger
	metrics *metrics.Metrics
	rules   []rule
}

// rule pairs a predicate with its handler. The handler receives the
// original text and the customer identifier.
type rule struct {
	name   string
	match  func(text string) bool
	handle func(ctx context.Context, text, customerID string) string
}

var (
	postalCodeRE = regexp.MustCompile(`\b\d{5}-?\d{3}\b`)
	nonDigitRE   = regexp.MustCompile(`\D`)
	checkoutRE   = regexp.MustCompile(`(?i)\b(finalizar|fechar|comprar|fechar pedido|checkout)\b`)
	stopwordRE   = regexp.MustCompile(`(?i)\b(tem|de|o|a|um|uma|preço|valor|do|da|no|na|sku|tamanho|cor|disponível|estoque)\b`)
)

// productTriggers are the keywords that mark a message as a product
// availability or price query.
var productTriggers = []string{
	"tem ", "estoque", "disponível", "preço", "valor", "sku", "tamanho", "cor",
}

// NewRouter creates the intent router over the given catalog and
// customer state store.
func NewRouter(idx *catalog.Index, states *store.StateStore, logger *slog.Logger, m *metrics.Metrics) *Router {
	r := &Router{
		catalog: idx,
		states:  states,
		logger:  logger.With("component", "router"),
		metrics: m,
	}
	r.rules = []rule{
		{name: "shipping_quote", match: matchPostalCode, handle: r.handleShippingQuote},
		{name: "product_lookup", match: matchProductQuery, handle: r.handleProductLookup},
		{name: "order_draft", match: matchCheckout, handle: r.handleOrderDraft},
	}
	return r
}

// Respond runs the rule table over the message. It returns the tool
// response for the first matching rule, or ErrNotHandled when no rule
// matches.
func (r *Router) Respond(ctx context.Context, text, customerID string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNotHandled
	}

	for _, rule := range r.rules {
		if !rule.match(text) {
			continue
		}
		r.logger.Debug("intent matched", "rule", rule.name, "customer_id", customerID)
		r.metrics.IntentMatches.WithLabelValues(rule.name).Inc()
		return rule.handle(ctx, text, customerID), nil
	}

	return "", ErrNotHandled
}

func matchPostalCode(text string) bool {
	return postalCodeRE.MatchString(text)
}

func matchProductQuery(text string) bool {
	lower := strings.ToLower(text)
	for _, trigger := range productTriggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}

func matchCheckout(text string) bool {
	return checkoutRE.MatchString(text)
}

// searchTerm strips connective words from a product query to guess the
// term, falling back to the raw text when stripping empties it.
func searchTerm(text string) string {
	term := strings.TrimSpace(stopwordRE.ReplaceAllString(text, ""))
	term = strings.Join(strings.Fields(term), " ")
	if term == "" {
		return text
	}
	return term
}
