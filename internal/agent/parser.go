package agent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/erp-inventory/internal/api"
)

// ErrNotUnderstood is returned when no operation matches the request text.
var ErrNotUnderstood = errors.New("request not understood")

type rule struct {
	op       Operation
	patterns []*regexp.Regexp
}

// rules are tried in order; the first matching rule decides the operation.
// Queries come before changes, so that "查询已完成的订单" lists orders and
// "查看一下订单" is not taken for "下订单".
var rules = []rule{
	{OpSalesReport, compile(
		`销售.*(报表|报告|统计|数据)`,
		`(?i)\bsales\b`,
		`(?i)\brevenue\b`,
	)},
	{OpInventoryReport, compile(
		`库存.*(报表|报告|统计)`,
		`(?i)\binventory\s+(report|summary|statistics|value)\b`,
	)},
	{OpDeleteOrder, compile(
		`删除.*订单`,
		`(?i)\b(delete|remove)\b.*\border\b`,
	)},
	{OpListOrders, compile(
		`(查询|查看|显示|列出).*订单`,
		`订单.*列表`,
		`(?i)\b(list|show|query|view|get|find)\b.*\borders?\b`,
		`(?i)^\s*orders\s*$`,
	)},
	{OpSetOrderStatus, compile(
		`(完成|取消|处理).*订单`,
		`订单.*(完成|取消|处理|状态)`,
		`(?i)\b(complete|cancel|process|mark|set)\b.*\border\b`,
		`(?i)\border\b.*\b(status|to)\b`,
	)},
	{OpCreateOrder, compile(
		`(创建|新建|添加|下).{0,3}订单`,
		`下单`,
		`(?i)\b(create|place|new|add|make)\b.*\border\b`,
		`(?i)\border\b.*\bfor\b`,
	)},
	{OpRestock, compile(
		`补货|进货`,
		`(增加|添加|补充).*库存`,
		`(?i)\b(restock|replenish)\b`,
		`(?i)\b(add|increase)\b.*\bstock\b`,
	)},
	{OpListProducts, compile(
		`库存|产品|商品`,
		`(?i)\b(inventory|stock|products?|catalog)\b`,
	)},
}

var (
	lowStockRe = compile(`不足|预警|低库存|缺货`, `(?i)\blow\b|\balerts?\b|\bshortage\b`)

	customerRe = compile(
		`客户[是为]?[:：]?\s*([^\s,，。]+)`,
		`([^\s,，。]+公司)`,
		`(?i)\bcustomer\s*[:=]?\s*([^\s,]+)`,
		`(?i)\bfor\s+([A-Z][^\s,]*)`,
	)
	emailRe = compile(`([A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,})`)
	phoneRe = compile(`(?i)(?:电话|phone)\s*[:：]?\s*(\+?[0-9][0-9\- ]{5,}[0-9])`)

	orderIDRe = compile(
		`订单[号]?[:：]?\s*#?(\d+)`,
		`(\d+)\s*号订单`,
		`(?i)\border\s*(?:id|no\.?|number)?\s*[:#]?\s*(\d+)`,
		`#(\d+)`,
	)
	productIDRe = compile(
		`(?i)\bproduct\s*(?:id)?\s*[:#]?\s*(\d+)`,
		`产品\s*[:：]?\s*#?(\d+)`,
	)
	quantityRe = compile(
		`(\d+)\s*[个台件套]`,
		`(?i)(\d+)\s*(?:units?|pcs|pieces|items)\b`,
		`(?i)\bby\s+(\d+)\b`,
		`(\d+)`,
	)
)

// statusWords maps a word of the request to an order status. Longer words
// come first so that 已完成 wins over 完成.
var statusWords = []struct {
	word   string
	status string
}{
	{"待处理", "pending"},
	{"处理中", "processing"},
	{"已完成", "completed"},
	{"已取消", "cancelled"},
	{"完成", "completed"},
	{"取消", "cancelled"},
	{"处理", "processing"},
	{"pending", "pending"},
	{"processing", "processing"},
	{"process", "processing"},
	{"completed", "completed"},
	{"complete", "completed"},
	{"cancelled", "cancelled"},
	{"canceled", "cancelled"},
	{"cancel", "cancelled"},
}

// aliases maps Chinese product words to catalog names.
var aliases = map[string][]string{
	"laptop":           {"笔记本电脑", "笔记本"},
	"desktop computer": {"台式电脑", "台式机", "电脑主机"},
	"monitor":          {"显示器"},
	"keyboard":         {"键盘"},
	"mouse":            {"鼠标"},
	"printer":          {"打印机"},
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

func matchAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// firstGroup returns the first capture group of the first matching pattern.
func firstGroup(res []*regexp.Regexp, s string) (string, bool) {
	for _, re := range res {
		if m := re.FindStringSubmatch(s); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}

func firstInt(res []*regexp.Regexp, s string) (int64, bool) {
	v, ok := firstGroup(res, s)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Classify returns the operation requested by text.
func Classify(text string) Operation {
	for _, r := range rules {
		if matchAny(r.patterns, text) {
			return r.op
		}
	}
	return OpUnknown
}

// Parse classifies text and extracts the parameters of the operation.
// Product names are resolved against catalog, which should be fresh.
func Parse(text string, catalog []api.Product) (Task, error) {
	t := Task{Op: Classify(text)}
	switch t.Op {
	case OpCreateOrder:
		t.CustomerName, _ = firstGroup(customerRe, text)
		t.CustomerEmail, _ = firstGroup(emailRe, text)
		t.CustomerPhone, _ = firstGroup(phoneRe, text)
		t.Items = findItems(text, catalog)
	case OpListOrders:
		t.Status = findStatus(text)
	case OpSetOrderStatus:
		t.OrderID, _ = firstInt(orderIDRe, text)
		t.Status = findStatus(text)
	case OpDeleteOrder:
		t.OrderID, _ = firstInt(orderIDRe, text)
	case OpListProducts:
		if matchAny(lowStockRe, text) {
			t.Op = OpStockAlerts
		}
	case OpRestock:
		rest := text
		if id, ok := firstInt(productIDRe, text); ok {
			t.ProductID = id
			rest = productIDRe[0].ReplaceAllString(rest, " ")
			rest = productIDRe[1].ReplaceAllString(rest, " ")
		} else if p, ok := findProduct(text, catalog); ok {
			t.ProductID = p.ID
			t.ProductName = p.Name
		}
		if q, ok := firstInt(quantityRe, rest); ok {
			t.Quantity = int(q)
		}
	case OpStockAlerts, OpSalesReport, OpInventoryReport:
	case OpUnknown:
		return t, ErrNotUnderstood
	}
	return t, nil
}

func findStatus(text string) string {
	lower := strings.ToLower(text)
	for _, w := range statusWords {
		if strings.Contains(lower, w.word) {
			return w.status
		}
	}
	return ""
}

// names returns the lower-cased words a product may be referred to by.
func names(p api.Product) []string {
	name := strings.ToLower(p.Name)
	out := []string{name}
	if !strings.HasSuffix(name, "s") {
		out = append(out, name+"s")
	}
	return append(out, aliases[name]...)
}

func findProduct(text string, catalog []api.Product) (api.Product, bool) {
	lower := strings.ToLower(text)
	for _, p := range catalog {
		for _, n := range names(p) {
			if strings.Contains(lower, n) {
				return p, true
			}
		}
	}
	return api.Product{}, false
}

// findItems finds every catalog product mentioned in text together with the
// number next to it: "10 laptops", "laptop x 2", "笔记本电脑5台", "买3个鼠标".
// A mentioned product without a number is ordered once.
func findItems(text string, catalog []api.Product) []Item {
	lower := strings.ToLower(text)
	var items []Item
	for _, p := range catalog {
		for _, n := range names(p) {
			idx := strings.Index(lower, n)
			if idx < 0 {
				continue
			}
			items = append(items, Item{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    quantityNear(lower, n),
			})
			break
		}
	}
	return items
}

func quantityNear(text, name string) int {
	q := regexp.QuoteMeta(name)
	before := regexp.MustCompile(`(\d+)\s*(?:x|×|units?\s+of|pcs|pieces\s+of|个|台|件|套)?\s*` + q)
	after := regexp.MustCompile(q + `\s*(?:[x×*]|数量|:|：)?\s*(\d+)`)
	for _, re := range []*regexp.Regexp{before, after} {
		if m := re.FindStringSubmatch(text); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				return n
			}
		}
	}
	return 1
}
