package internal

import "fmt"

// OrderRecord is one row of the marketplace order export.
type OrderRecord struct {
	RowIndex       int    `json:"rowIndex"`
	OptionInfo     string `json:"optionInfo"`
	Quantity       string `json:"quantity"`
	RecipientName  string `json:"recipientName"`
	RecipientPhone string `json:"recipientPhone"`
	Address        string `json:"address"`
	Message        string `json:"message"`
	OrderID        string `json:"orderId"`
}

// CatalogRow is one sellable product/option line of the supplier price list.
// Values are kept as cell text so they are written back out unchanged.
type CatalogRow struct {
	RowIndex      int    `json:"rowIndex"`
	Seq           string `json:"seq"`
	ProductNo     string `json:"productNo"`
	ProductName   string `json:"productName"`
	OptionNo      string `json:"optionNo"`
	OptionName    string `json:"optionName"`
	ShippingTerms string `json:"shippingTerms"`
	SalePrice     string `json:"salePrice"`
}

// InvoiceRow is one line of the supplier's shipment sheet.
// Carrier and TrackingNo are read from the 판매사 주문번호 / 판매사 옵션번호
// columns, which the supplier fills with carrier name and tracking number.
type InvoiceRow struct {
	RowIndex    int
	ProductName string
	OptionName  string
	Carrier     string
	TrackingNo  string
}

type Candidate struct {
	Score          int        `json:"score"`
	RowIndex       int        `json:"rowIndex"`
	ProductMatches int        `json:"productMatches"`
	OptionMatches  int        `json:"optionMatches"`
	Row            CatalogRow `json:"row"`
}

// Label is the operator-facing description used when choosing between candidates.
func (c Candidate) Label() string {
	return fmt.Sprintf("%s / %s (점수:%d)", c.Row.ProductName, c.Row.OptionName, c.Score)
}

type DecisionKind string

const (
	DecisionAuto    DecisionKind = "AUTO"
	DecisionPending DecisionKind = "PENDING"
	DecisionNone    DecisionKind = "NONE"
)

type MatchDecision struct {
	Kind       DecisionKind
	Row        *CatalogRow
	Candidates []Candidate
}

type Sender struct {
	Name  string
	Phone string
}

const (
	DefaultSenderName  = "전국농가자랑"
	DefaultSenderPhone = "010-2890-0086"

	DeliveryMethodParcel = "택배,등기,소포"
)

var OutputColumns = []string{
	"순서", "상품번호", "상품명", "옵션번호", "옵션명", "배송비조건", "판매가격", "수량",
	"주문자 성명", "주문자 전화번호", "수취인 성명", "수취인 전화번호", "수취인 주소", "배송메시지",
	"판매사 주문번호", "판매사 옵션번호",
}

type OutputRecord struct {
	Seq            string
	ProductNo      string
	ProductName    string
	OptionNo       string
	OptionName     string
	ShippingTerms  string
	SalePrice      string
	Quantity       string
	SenderName     string
	SenderPhone    string
	RecipientName  string
	RecipientPhone string
	Address        string
	Message        string
	SellerOrderNo  string
	SellerOptionNo string
}

// Values returns the record in OutputColumns order.
func (r OutputRecord) Values() []string {
	return []string{
		r.Seq, r.ProductNo, r.ProductName, r.OptionNo, r.OptionName, r.ShippingTerms, r.SalePrice, r.Quantity,
		r.SenderName, r.SenderPhone, r.RecipientName, r.RecipientPhone, r.Address, r.Message,
		r.SellerOrderNo, r.SellerOptionNo,
	}
}

var InvoiceOutputColumns = []string{"상품주문번호", "배송방법", "택배사", "송장번호"}

type InvoiceOutputRecord struct {
	OrderID        string
	DeliveryMethod string
	Carrier        string
	TrackingNo     string
}

func (r InvoiceOutputRecord) Values() []string {
	return []string{r.OrderID, r.DeliveryMethod, r.Carrier, r.TrackingNo}
}

type SessionStatus string

const (
	SessionOpen       SessionStatus = "open"
	SessionFinalized  SessionStatus = "finalized"
	SessionSuperseded SessionStatus = "superseded"
)

type SessionMeta struct {
	ID          string
	OrdersPath  string
	CatalogPath string
	Status      SessionStatus
	CreatedAt   string
}

// SessionRow is the persisted decision for one order row of a session.
// Selected is the 0-based index into Candidates chosen by the operator.
// SessionRow is one matched or pending order of a stored session. Order is
// the order as it was read at propose time.
type SessionRow struct {
	OrderRow   int
	Order      OrderRecord
	Kind       DecisionKind
	OptionInfo string
	Candidates []Candidate
	Selected   *int
}

// Mail status lifecycle: fetched, then skipped, processed, exported or failed.
const (
	EmailFetched   = "fetched"
	EmailSkipped   = "skipped"
	EmailProcessed = "processed"
	EmailExported  = "exported"
	EmailFailed    = "failed"
)

type EmailRow struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}
