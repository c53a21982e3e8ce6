package sales

// DefaultCatalog is the fixed list of flavors on sale.
var DefaultCatalog = []string{
	"Naranjilla Hielo",
	"Mora Hielo",
	"Coco Hielo",
	"Tres Sabores Hielo",
	"Come y Bebe",
	"Coco Mora",
	"Maracumango",
	"Guanábana Mora",
	"Tres Sabores",
	"Chocolate Coco",
	"Chocolate Hielo",
	"Chocovainilla",
	"Coco Crema",
	"Chicle",
	"Ron Pasas",
	"Mora Crema",
	"Mora Chocovainilla",
	"Chocolate Crema",
	"Maracuyá",
	"Queso Crema",
}
