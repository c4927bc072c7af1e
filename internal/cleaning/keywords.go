package cleaning

import "strings"

// Keywords are the vocabularies matched against column names. Matching is a
// substring test on the lower-cased name.
type Keywords struct {
	Identifier []string `mapstructure:"identifier" yaml:"identifier" json:"identifier"`
	Ordinal    []string `mapstructure:"ordinal" yaml:"ordinal" json:"ordinal"`
	Price      []string `mapstructure:"price" yaml:"price" json:"price"`
	Percent    []string `mapstructure:"percent" yaml:"percent" json:"percent"`
}

// DefaultKeywords returns the Chinese business vocabulary with English equivalents.
func DefaultKeywords() Keywords {
	return Keywords{
		Identifier: []string{"id", "订单号", "日期", "编号", "序号", "order number", "date", "code", "serial number"},
		Ordinal:    []string{"等级", "年龄", "评分", "段位", "层次", "level", "tier", "age", "rating", "rank", "grade"},
		Price:      []string{"价格", "售价", "金额", "销售额", "利润", "成本", "price", "amount", "profit", "cost"},
		Percent:    []string{"率", "百分比", "占比", "rate", "percent", "share", "proportion"},
	}
}

// Roles names the columns each stage reads.
type Roles struct {
	Cost        string `mapstructure:"cost" yaml:"cost" json:"cost" validate:"required"`
	SalePrice   string `mapstructure:"sale_price" yaml:"sale_price" json:"sale_price" validate:"required"`
	Quantity    string `mapstructure:"quantity" yaml:"quantity" json:"quantity" validate:"required"`
	Profit      string `mapstructure:"profit" yaml:"profit" json:"profit" validate:"required"`
	Category    string `mapstructure:"category" yaml:"category" json:"category"`
	SalesAmount string `mapstructure:"sales_amount" yaml:"sales_amount" json:"sales_amount"`
	CustomerAge string `mapstructure:"customer_age" yaml:"customer_age" json:"customer_age"`
}

// DefaultRoles returns the column names of the standard sales export.
func DefaultRoles() Roles {
	return Roles{
		Cost:        "进货价格",
		SalePrice:   "实际售价",
		Quantity:    "销售数",
		Profit:      "利润",
		Category:    "商品品类",
		SalesAmount: "销售额",
		CustomerAge: "客户年龄",
	}
}

func matchesAny(name string, keywords []string) bool {
	lower := strings.ToLower(name)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
