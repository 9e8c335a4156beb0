package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/hango1705/bongland-backend/internal/domain/model"
	"github.com/hango1705/bongland-backend/internal/infra/mail"
	"github.com/rs/zerolog/log"
)

const (
	DefaultShopName   = "BÔNG LAND"
	maxImageBytes     = 5 << 20
	imageFetchTimeout = 5 * time.Second
)

type IMailService interface {
	SendOrderConfirmation(ctx context.Context, email string, items []model.OrderItem) error
}

type MailService struct {
	sender     mail.EmailSender
	shopName   string
	httpClient *http.Client
}

// OrderConfirmationData 訂單確認信的數據結構
type OrderConfirmationData struct {
	ShopName string
	Items    []OrderConfirmationItem
}

type OrderConfirmationItem struct {
	Name   string
	Amount uint
	Price  string
}

func NewMailService(sender mail.EmailSender, shopName string) *MailService {
	if sender == nil {
		panic("NewMailService sender is nil")
	}
	if shopName == "" {
		shopName = DefaultShopName
	}
	return &MailService{
		sender:     sender,
		shopName:   shopName,
		httpClient: &http.Client{Timeout: imageFetchTimeout},
	}
}

func (m *MailService) SendOrderConfirmation(ctx context.Context, email string, items []model.OrderItem) error {
	if email == "" {
		return fmt.Errorf("%w: recipient email is empty", ErrNotification)
	}

	html, err := GenerateOrderConfirmationHTML(m.shopName, items)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotification, err)
	}

	attachments := make([]mail.Attachment, 0, len(items))
	for i, item := range items {
		if item.Image == "" {
			continue
		}
		a, err := m.fetchImage(ctx, i, item.Image)
		if err != nil {
			log.Warn().Err(err).Str("image", item.Image).Msg("skip product image attachment")
			continue
		}
		attachments = append(attachments, a)
	}

	subject := fmt.Sprintf("Cảm ơn bạn đã đặt hàng tại %s", m.shopName)
	if err := m.sender.SendEmail(subject, html, []string{email}, nil, nil, attachments); err != nil {
		return fmt.Errorf("%w: %w", ErrNotification, err)
	}
	return nil
}

func (m *MailService) fetchImage(ctx context.Context, idx int, url string) (mail.Attachment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return mail.Attachment{}, err
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return mail.Attachment{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return mail.Attachment{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return mail.Attachment{}, err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return mail.Attachment{
		Filename:    imageFilename(idx, url, contentType),
		ContentType: contentType,
		Data:        data,
	}, nil
}

func imageFilename(idx int, url, contentType string) string {
	name := path.Base(strings.SplitN(url, "?", 2)[0])
	if name != "" && name != "." && name != "/" && path.Ext(name) != "" {
		return name
	}
	ext := ".jpg"
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if exts, _ := mime.ExtensionsByType(mediaType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	return fmt.Sprintf("product_%d%s", idx+1, ext)
}

// GenerateOrderConfirmationHTML 生成 HTML 格式的訂單確認信
func GenerateOrderConfirmationHTML(shopName string, items []model.OrderItem) (string, error) {
	tmpl, err := template.New("orderConfirmation").Parse(orderConfirmationTemplate)
	if err != nil {
		return "", fmt.Errorf("解析 HTML 模板失敗: %w", err)
	}

	data := OrderConfirmationData{ShopName: shopName}
	for _, item := range items {
		data.Items = append(data.Items, OrderConfirmationItem{
			Name:   item.Name,
			Amount: item.Amount,
			Price:  item.Price.String(),
		})
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("執行 HTML 模板失敗: %w", err)
	}
	return buf.String(), nil
}

const orderConfirmationTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.ShopName}}</title>
</head>
<body>
    <div><b>Bạn đã đặt hàng thành công tại {{.ShopName}}</b></div>
    {{range .Items}}
    <div>
        <div>Bạn đã đặt sản phẩm <b>{{.Name}}</b> với số lượng: <b>{{.Amount}}</b> và giá là : <b>{{.Price}}đ</b></div>
        <div>Bên dưới là hình ảnh sản phẩm:</div>
    </div>
    {{end}}
</body>
</html>
`
