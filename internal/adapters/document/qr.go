// Package document renders authorized invoices as printable PDFs with the
// fiscal QR code.
package document

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/damianpacheco/facturacion-arca/internal/core/customer"
	"github.com/damianpacheco/facturacion-arca/internal/core/invoice"
)

const qrBaseURL = "https://www.afip.gob.ar/fe/qr/?p="

// qrPayload is the voucher data embedded in the fiscal QR (RG 4291). Field
// names and order follow the normative JSON layout.
type qrPayload struct {
	Ver        int     `json:"ver"`
	Fecha      string  `json:"fecha"`
	CUIT       int64   `json:"cuit"`
	PtoVta     int     `json:"ptoVta"`
	TipoCmp    int     `json:"tipoCmp"`
	NroCmp     int64   `json:"nroCmp"`
	Importe    float64 `json:"importe"`
	Moneda     string  `json:"moneda"`
	Ctz        float64 `json:"ctz"`
	TipoDocRec int     `json:"tipoDocRec"`
	NroDocRec  int64   `json:"nroDocRec"`
	TipoCodAut string  `json:"tipoCodAut"`
	CodAut     int64   `json:"codAut"`
}

// QRURL builds the verification URL embedded in the fiscal QR: the payload
// JSON, base64-encoded, appended to the authority's validation endpoint.
func QRURL(inv invoice.Invoice, issuerCUIT int64) (string, error) {
	docType := invoice.DocTypeCUIT
	var docNumber int64
	if inv.Customer != nil {
		docNumber, _ = strconv.ParseInt(customer.NormalizeCUIT(inv.Customer.CUIT), 10, 64)
		if inv.Customer.TaxCategory == customer.ConsumidorFinal {
			docType = invoice.DocTypeAnonymous
		}
	} else {
		docType = invoice.DocTypeAnonymous
	}

	var codAut int64
	if inv.CAE != "" {
		var err error
		codAut, err = strconv.ParseInt(inv.CAE, 10, 64)
		if err != nil {
			return "", fmt.Errorf("parse CAE %q: %w", inv.CAE, err)
		}
	}

	payload := qrPayload{
		Ver:        1,
		Fecha:      inv.IssueDate.Format("2006-01-02"),
		CUIT:       issuerCUIT,
		PtoVta:     inv.SalesPoint,
		TipoCmp:    int(inv.VoucherType),
		NroCmp:     inv.Number,
		Importe:    inv.Total.InexactFloat64(),
		Moneda:     "PES",
		Ctz:        1,
		TipoDocRec: docType,
		NroDocRec:  docNumber,
		TipoCodAut: "E",
		CodAut:     codAut,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal QR payload: %w", err)
	}

	return qrBaseURL + base64.StdEncoding.EncodeToString(data), nil
}

// QRImage encodes the verification URL as a PNG QR code.
func QRImage(url string) ([]byte, error) {
	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode QR: %w", err)
	}
	return png, nil
}
