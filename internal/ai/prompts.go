package ai

import "fmt"

const summarySystemPrompt = "Eres un asistente experto en resumir artículos periodísticos en " +
	"español claro, conciso y con gramática correcta. " +
	"Devuelves sólo el resumen en español, sin comentarios adicionales."

func summaryUserPrompt(article string) string {
	return "Resume el siguiente artículo en español. " +
		"Escribe un texto cohesivo y bien estructurado, con buena sintaxis. " +
		"No uses listas; usa párrafos completos.\n\n" +
		"Artículo:\n" + article
}

func topicsSystemPrompt(n, maxWords int) string {
	return fmt.Sprintf("Eres un experto en marketing digital que detecta oportunidades comerciales "+
		"y publicitarias en artículos periodísticos.\n\n"+
		"Tu objetivo es extraer %[1]d temas comerciales del artículo que sirvan para generar "+
		"anuncios o tiendas de productos relacionados.\n\n"+
		"FORMATO DE RESPUESTA:\n"+
		"Devuelve EXACTAMENTE %[1]d búsquedas comerciales, una por línea, sin numeración ni viñetas.\n"+
		"Cada búsqueda tiene como MÁXIMO %[2]d palabras.\n"+
		"Las búsquedas deben ser distintas entre sí y centrarse en productos, servicios, "+
		"lugares o actividades mencionados en el artículo.\n\n"+
		"EJEMPLOS de buenos temas comerciales:\n"+
		"mejores restaurantes Madrid centro\n"+
		"hoteles económicos Barcelona playa\n"+
		"cursos online marketing digital\n"+
		"smartphones gama media 2024\n"+
		"gimnasios cerca de mí", n, maxWords)
}

func topicsUserPrompt(article string, n, maxWords int) string {
	return fmt.Sprintf("Analiza el siguiente artículo e identifica %[1]d temas comerciales "+
		"con los que buscar productos o servicios relacionados.\n\n"+
		"INSTRUCCIONES:\n"+
		"- Lee el artículo completo.\n"+
		"- Piensa qué productos, servicios, lugares o actividades interesarían a quien lo lee.\n"+
		"- Cada tema es una búsqueda de máximo %[2]d palabras, como la escribiría alguien en un buscador.\n"+
		"- Usa español o inglés según sea más natural para el tema.\n"+
		"- Devuelve EXACTAMENTE %[1]d líneas, sin numeración, viñetas ni explicaciones.\n\n"+
		"ARTÍCULO A ANALIZAR:\n%[3]s", n, maxWords, article)
}
