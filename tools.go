package wabridge

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/desfrut/wabridge/store"
)

// localShippingPrefix marks postal codes served by immediate local
// delivery (Manaus).
const localShippingPrefix = "690"

const (
	freeShippingAnswer = "Em Manaus, oferecemos frete imediato grátis em horário comercial. " +
		"Informe o bairro para estimativa do tempo de entrega."
	carrierShippingAnswer = "Para o seu CEP, coto frete pelos Correios (PAC/Sedex). " +
		"Me diga a cidade/UF e se deseja entrega econômica (PAC) ou rápida (Sedex). " +
		"Se preferir, posso estimar com peso padrão (0,5 kg)."
	productNotFoundAnswer = "Não encontrei esse item agora. Pode me enviar o nome exato ou o SKU?"
	productClosingPrompt  = "Se quiser, já separo no seu nome. Me diga o SKU ou a opção que gostou."
)

// handleShippingQuote extracts the postal code, persists it onto the
// customer's state record and answers the shipping policy for it.
func (r *Router) handleShippingQuote(ctx context.Context, text, customerID string) string {
	cep := nonDigitRE.ReplaceAllString(postalCodeRE.FindString(text), "")

	state := r.states.Get(customerID)
	state.PostalCode = cep
	r.states.Put(customerID, state)

	if strings.HasPrefix(cep, localShippingPrefix) {
		return freeShippingAnswer
	}
	return carrierShippingAnswer
}

// handleProductLookup searches the catalog for the guessed term and
// formats each hit as a bullet line.
func (r *Router) handleProductLookup(ctx context.Context, text, customerID string) string {
	products := r.catalog.Search(searchTerm(text), 3)
	if len(products) == 0 {
		return productNotFoundAnswer
	}

	var lines []string
	for _, p := range products {
		name := p.Name
		if name == "" {
			name = "Produto"
		}
		sku := p.SKU
		if sku == "" {
			sku = "—"
		}
		price := p.Price
		if price == "" {
			price = "sob consulta"
		}
		if p.Stock != "" {
			lines = append(lines, fmt.Sprintf("• %s (SKU %s) – R$ %s — estoque: %s", name, sku, price, p.Stock))
		} else {
			lines = append(lines, fmt.Sprintf("• %s (SKU %s) – R$ %s", name, sku, price))
		}
	}
	lines = append(lines, productClosingPrompt)
	return strings.Join(lines, "\n")
}

// handleOrderDraft synthesizes a draft order identifier from the
// customer's state record and asks for payment and delivery choices.
func (r *Router) handleOrderDraft(ctx context.Context, text, customerID string) string {
	orderID := draftOrderID(r.states.Get(customerID))
	return fmt.Sprintf("Pedido rascunho criado: %s. Agora me confirme o método de pagamento "+
		"(Pix ou cartão em até 6x) e o endereço/retirada para eu finalizar.", orderID)
}

// draftOrderID derives a 5-digit identifier from the serialized state
// record. Uniqueness is not guaranteed; the identifier is a placeholder
// until the order is actually created downstream.
func draftOrderID(state store.CustomerState) string {
	blob, _ := json.Marshal(state)
	h := fnv.New32a()
	h.Write(blob)
	return fmt.Sprintf("DFT-%05d", h.Sum32()%100000)
}
