package inventory

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var alertSubjects = map[AlertKind]string{
	AlertLowStock:  "Stock bajo",
	AlertRestocked: "Stock repuesto",
	AlertOverstock: "Sobre-stock",
}

// FormatAlert arma asunto y cuerpo en español con separadores de miles locales.
func FormatAlert(a Alert) (subject, body string) {
	p := message.NewPrinter(language.Spanish)
	subject = p.Sprintf("[%s] %s", alertSubjects[a.Kind], a.ProductName)

	body = p.Sprintf("Producto: %s (%s)\n", a.ProductName, a.ProductID)
	body += p.Sprintf("Existencia actual: %d unidades (antes %d)\n", a.Quantity, a.Previous)
	body += p.Sprintf("Mínimo: %d\n", a.MinStock)
	if a.MaxStock > 0 {
		body += p.Sprintf("Máximo: %d\n", a.MaxStock)
	}
	switch a.Kind {
	case AlertLowStock:
		body += "La existencia está en o por debajo del mínimo configurado.\n"
	case AlertRestocked:
		body += "La existencia volvió a superar el mínimo.\n"
	case AlertOverstock:
		body += "La existencia supera el máximo configurado.\n"
	}
	body += "Origen: " + a.Context + "\n"
	body += "Fecha: " + a.At.Format("02/01/2006 15:04") + "\n"
	return subject, body
}
