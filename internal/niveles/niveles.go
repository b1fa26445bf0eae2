package niveles

import (
	"errors"
	"slices"
)

// ErrNivelDesconocido é devolvido para um nível fora do catálogo.
var ErrNivelDesconocido = errors.New("Nivel desconocido")

// Nivel descreve um nível de aula com o checklist de avaliação e o temário.
type Nivel struct {
	Nombre   string   `json:"nombre"`
	Title    string   `json:"title"`
	Number   int      `json:"number"`
	Subtitle string   `json:"subtitle"`
	Test     []string `json:"listTest"`
	Temario  []string `json:"listTemario"`
}

const (
	NivelTest          = "test"
	NivelPrincipiantes = "principiantes"
	NivelIntermedio    = "intermedio"
	NivelAvanzado      = "avanzado"
	NivelKizomba       = "kizomba"
)

const (
	msgNinguna          = "No has seleccionado ninguna casilla."
	msgPrefix           = "El nivel que mejor se adapta a ti es: "
	msgPasosSuficientes = "¡Genial! Sabes los pasos necesarios para atender a este nivel."
)

var catalogo = []Nivel{
	{
		Nombre:   NivelTest,
		Title:    "POR DETERMINAR",
		Number:   0,
		Subtitle: "Selecciona según tus conocimientos para saber a qué nivel debes acudir:",
		Test:     []string{"Paso básico", "Giro derecha", "Cross", "Cross con giro", "Copa", "Figuras complejas"},
		Temario:  []string{},
	},
	{
		Nombre:   NivelPrincipiantes,
		Title:    "PRINCIPIANTES",
		Number:   1,
		Subtitle: "Nivel de aptitud:",
		Test:     []string{"Deseo aprender", "Quiero divertirme", "Soy constante", "Presto atención", "Soy paciente"},
		Temario:  []string{"Básicos de bachata", "Básicos de kizomba", "Giros pivotados", "Cross con giro", "Copa"},
	},
	{
		Nombre:   NivelIntermedio,
		Title:    "INTERMEDIO",
		Number:   2,
		Subtitle: "Lo que sé hacer:",
		Test:     []string{"Paso básico", "Giros pivotados", "Cross", "Cross con giro", "Copa"},
		Temario:  []string{"Figuras simples", "Ondas en Bachata", "Contragiros", "Cross giro frenado", "Figuras con Copa"},
	},
	{
		Nombre:   NivelAvanzado,
		Title:    "AVANZADO",
		Number:   3,
		Subtitle: "Lo que sé hacer:",
		Test:     []string{"Vueltas rápidas", "Giros dobles", "360", "Cross con giro", "Copa"},
		Temario:  []string{"Figuras complejas", "Corporales en Bachata", "Pasos libres", "Cross giro frenado", "360"},
	},
	{
		Nombre:   NivelKizomba,
		Title:    "KIZOMBA",
		Number:   4,
		Subtitle: "Nivel de aptitud:",
		Test:     []string{"No tengo ni idea", "Tengo nivel medio", "Se los pasos básicos", "Escucho con atención", "Soy paciente"},
		Temario:  []string{"Figuras de kizomba", "Figuras de urban-kizz", "Técnicas de control del eje", "Técnicas para lideres", "Técnicas para followers"},
	},
}

// Catalog devolve uma cópia dos cinco níveis na ordem de exibição.
func Catalog() []Nivel {
	out := make([]Nivel, len(catalogo))
	for i, n := range catalogo {
		n.Test = slices.Clone(n.Test)
		n.Temario = slices.Clone(n.Temario)
		out[i] = n
	}
	return out
}

// Find busca um nível pelo nome.
func Find(nombre string) (Nivel, bool) {
	for _, n := range Catalog() {
		if n.Nombre == nombre {
			return n, true
		}
	}
	return Nivel{}, false
}

// Evaluate devolve a recomendação para os itens marcados no checklist do nível.
func Evaluate(nivel string, selected []string) (string, error) {
	n, ok := Find(nivel)
	if !ok {
		return "", ErrNivelDesconocido
	}
	has := func(i int) bool { return slices.Contains(selected, n.Test[i]) }

	switch nivel {
	case NivelTest:
		return evaluateTest(len(selected), has(3), has(4), has(5)), nil
	case NivelPrincipiantes:
		switch {
		case len(selected) == 0:
			return msgNinguna, nil
		case len(selected) > 3:
			return "¡Genial! Este es tu momento, con esa actitud vas a disfrutar de cada clase y aprenderás a buen ritmo.", nil
		default:
			return "Aprovecha tu motivación para unirte a nuestras clases, donde el aprendizaje y la diversión van de la mano.", nil
		}
	case NivelIntermedio:
		switch {
		case len(selected) == 0:
			return msgNinguna, nil
		case has(3) && has(4) || len(selected) == 5:
			return msgPasosSuficientes, nil
		default:
			return "El cross con giro es un paso indispensable para poder seguir el ritmo de la clase," +
				" y la copa es aconsejable saber hacerla aunque no sea perfecta, pues la trabajamos mucho." +
				" Ambos pasos te los enseñamos en el nivel principiantes.", nil
		}
	case NivelAvanzado:
		switch {
		case len(selected) == 0:
			return msgNinguna, nil
		case has(3) && has(4) || len(selected) == 5:
			return msgPasosSuficientes, nil
		default:
			return "El cross con giro y la copa son pasos indispensables para poder seguir el ritmo de la clase," +
				" Ambos pasos te los enseñamos en el nivel principiantes.", nil
		}
	default:
		switch {
		case len(selected) == 0:
			return msgNinguna, nil
		case has(0):
			return "No te preocupes, no es necesario tener conocimientos previos.", nil
		default:
			return "Cada mes empezamos con combinaciones nuevas, si te unes a principios de mes no tendrás problema para ponerte al día.", nil
		}
	}
}

// evaluateTest decide pelo cross com giro, a copa e as figuras complexas.
// Cross com giro e figuras complexas sem copa cai no caso de avaliar a copa antes.
func evaluateTest(count int, crossGiro, copa, figuras bool) string {
	switch {
	case count == 0:
		return "No has seleccionado ninguna casilla. " + msgPrefix + "PRINCIPIANTES"
	case !crossGiro && !copa && !figuras:
		return msgPrefix + "PRINCIPIANTES"
	case crossGiro && !copa && !figuras:
		return msgPrefix + "PRINCIPIANTES." +
			" Ahí te enseñaremos la copa, para que puedas asistir al nievel intermedio."
	case copa && !figuras:
		return msgPrefix + "INTERMEDIO"
	case copa && figuras:
		return msgPrefix + "AVANZADO"
	default:
		return msgPrefix + "AVANZADO" + " Pero habría que evaluar antes si sabes hacer la Copa."
	}
}

// Selection guarda os itens marcados na ordem em que foram escolhidos.
type Selection struct {
	items []string
}

// Toggle adiciona o item ou o remove se já estava marcado.
func (s *Selection) Toggle(item string) {
	if i := slices.Index(s.items, item); i >= 0 {
		s.items = slices.Delete(s.items, i, i+1)
		return
	}
	s.items = append(s.items, item)
}

func (s *Selection) Items() []string {
	return slices.Clone(s.items)
}

func (s *Selection) Reset() {
	s.items = nil
}
