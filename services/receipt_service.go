package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	config "github.com/tejaa171419/paysplit/configs"
	"github.com/tejaa171419/paysplit/database"
	"github.com/tejaa171419/paysplit/models"
)

const receiptTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><style>
body { font-family: Helvetica, Arial, sans-serif; margin: 48px; color: #1a1a2e; }
h1 { font-size: 22px; } .muted { color: #666; }
table { border-collapse: collapse; width: 100%; margin-top: 24px; }
td { padding: 8px 0; border-bottom: 1px solid #eee; }
td:last-child { text-align: right; font-weight: bold; }
.total { font-size: 18px; }
</style></head>
<body>
<h1>PaySplit Payment Receipt</h1>
<p class="muted">Receipt {{.ReceiptNumber}} &middot; {{.Date}}</p>
<table>
<tr><td>Paid by</td><td>{{.PayerName}} ({{.PayerVPA}})</td></tr>
{{if .Recipient}}<tr><td>Paid to</td><td>{{.Recipient}}</td></tr>{{end}}
<tr><td>Method</td><td>{{.Method}}</td></tr>
{{if .Note}}<tr><td>Note</td><td>{{.Note}}</td></tr>{{end}}
<tr class="total"><td>Amount</td><td>{{.Currency}} {{printf "%.2f" .Amount}}</td></tr>
</table>
</body>
</html>`

// GenerateReceipt renders a PDF receipt for a succeeded attempt, uploads it
// and stores the URL on the attempt. Safe to call more than once: an existing
// receipt URL is returned as-is.
func GenerateReceipt(attempt *models.PaymentAttempt) (string, error) {
	if attempt.Status != models.PaymentStatusSucceeded {
		return "", fmt.Errorf("receipt requires a succeeded payment, attempt is %s", attempt.Status)
	}
	if attempt.ReceiptURL != nil {
		return *attempt.ReceiptURL, nil
	}

	htmlData, err := renderReceiptHTML(attempt)
	if err != nil {
		return "", err
	}

	pdfBytes, err := renderPDF(htmlData)
	if err != nil {
		return "", err
	}

	uploadURL, err := uploadReceipt(pdfBytes, attempt.ReceiptNumber)
	if err != nil {
		return "", err
	}

	attempt.ReceiptURL = &uploadURL
	if err := database.DB.Model(attempt).Update("receipt_url", uploadURL).Error; err != nil {
		log.Printf("🔥 Failed to store receipt URL for attempt %s: %v", attempt.ID, err)
		return "", err
	}

	log.Printf("✅ Generated receipt %s for attempt %s", attempt.ReceiptNumber, attempt.ID)
	return uploadURL, nil
}

func renderReceiptHTML(attempt *models.PaymentAttempt) (string, error) {
	tmpl, err := template.New("receipt").Parse(receiptTemplate)
	if err != nil {
		return "", err
	}

	recipient := ""
	if attempt.RecipientVPA != nil {
		recipient = *attempt.RecipientVPA
	} else if attempt.MerchantCode != nil {
		recipient = "Merchant " + *attempt.MerchantCode
	} else if attempt.Group != nil {
		recipient = "Group: " + attempt.Group.Name
	}

	note := ""
	if attempt.Note != nil {
		note = *attempt.Note
	}

	data := struct {
		ReceiptNumber, Date, PayerName, PayerVPA string
		Recipient, Method, Note, Currency        string
		Amount                                   float64
	}{
		ReceiptNumber: attempt.ReceiptNumber,
		Date:          attempt.UpdatedAt.Format("January 2, 2006 15:04"),
		PayerName:     attempt.Payer.FullName,
		PayerVPA:      attempt.Payer.VPA,
		Recipient:     recipient,
		Method:        attempt.Method,
		Note:          note,
		Currency:      attempt.Currency,
		Amount:        attempt.Amount,
	}

	var rendered bytes.Buffer
	if err := tmpl.Execute(&rendered, data); err != nil {
		return "", err
	}
	return rendered.String(), nil
}

func renderPDF(htmlContent string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	var pdfBuffer []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuffer, nil
}

func uploadReceipt(fileBytes []byte, receiptNumber string) (string, error) {
	cld, err := cloudinary.NewFromURL(config.Config("CLOUDINARY_URL"))
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	uploadParams := uploader.UploadParams{
		PublicID:     fmt.Sprintf("receipts/%s", receiptNumber),
		Folder:       "paysplit_receipts",
		ResourceType: "raw",
	}

	uploadResult, err := cld.Upload.Upload(ctx, bytes.NewReader(fileBytes), uploadParams)
	if err != nil {
		return "", err
	}
	return uploadResult.SecureURL, nil
}
