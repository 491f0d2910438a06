package core

// DefaultCategories is the category set seeded on first launch, when the
// category table is still empty. Users can add more; these are marked
// IsDefault for display purposes only and delete like any other category.
func DefaultCategories() []Category {
	return []Category{
		// 支出分类
		{Name: "餐饮", Type: Expense, Icon: "🍽️", Color: "#FF6B6B", IsDefault: true, SortOrder: 1},
		{Name: "交通", Type: Expense, Icon: "🚗", Color: "#4ECDC4", IsDefault: true, SortOrder: 2},
		{Name: "购物", Type: Expense, Icon: "🛒", Color: "#45B7D1", IsDefault: true, SortOrder: 3},
		{Name: "娱乐", Type: Expense, Icon: "🎮", Color: "#96CEB4", IsDefault: true, SortOrder: 4},
		{Name: "医疗", Type: Expense, Icon: "🏥", Color: "#FFEAA7", IsDefault: true, SortOrder: 5},
		{Name: "教育", Type: Expense, Icon: "📚", Color: "#DDA0DD", IsDefault: true, SortOrder: 6},
		{Name: "住房", Type: Expense, Icon: "🏠", Color: "#FFB6C1", IsDefault: true, SortOrder: 7},
		{Name: "通讯", Type: Expense, Icon: "📱", Color: "#87CEEB", IsDefault: true, SortOrder: 8},
		{Name: "服装", Type: Expense, Icon: "👕", Color: "#F0E68C", IsDefault: true, SortOrder: 9},
		{Name: "其他", Type: Expense, Icon: "📦", Color: "#D3D3D3", IsDefault: true, SortOrder: 10},

		// 收入分类
		{Name: "工资", Type: Income, Icon: "💰", Color: "#98D8C8", IsDefault: true, SortOrder: 1},
		{Name: "奖金", Type: Income, Icon: "🎁", Color: "#F7DC6F", IsDefault: true, SortOrder: 2},
		{Name: "投资", Type: Income, Icon: "📈", Color: "#AED6F1", IsDefault: true, SortOrder: 3},
		{Name: "兼职", Type: Income, Icon: "💼", Color: "#A9DFBF", IsDefault: true, SortOrder: 4},
		{Name: "礼金", Type: Income, Icon: "🧧", Color: "#F1948A", IsDefault: true, SortOrder: 5},
		{Name: "退款", Type: Income, Icon: "↩️", Color: "#D7BDE2", IsDefault: true, SortOrder: 6},
		{Name: "其他", Type: Income, Icon: "💵", Color: "#85C1E9", IsDefault: true, SortOrder: 7},
	}
}
