// Package categorizer assigns products to families. Two modes share one
// assignment primitive: an automatic pass driven by an ordered keyword rule
// table, and an interactive flow where an operator confirms suggestions one
// product at a time.
package categorizer

import (
	"fmt"
	"os"
	"strings"

	"fjacquet/ticket-tracker/internal/logging"
	"fjacquet/ticket-tracker/internal/productkey"

	"gopkg.in/yaml.v3"
)

// Rule maps a set of keywords to a family. A rule matches when any of its
// keywords occurs in the normalized product key.
type Rule struct {
	Keywords []string `yaml:"keywords"`
	FamilyID int64    `yaml:"family_id"`
}

// RuleTable is the ordered rule list. Order is significant: the first
// matching rule wins, so specific rules must precede generic ones.
type RuleTable struct {
	Version int    `yaml:"version"`
	Rules   []Rule `yaml:"rules"`
}

// Match returns the family of the first rule matching the product key, or
// false when no rule matches. Products matching no rule stay uncategorized;
// the table never guesses. Keywords are accent-folded with the same function
// that produces product keys, so "PATÉ" in a rule file matches the key
// "PATE".
func (t *RuleTable) Match(key string) (int64, bool) {
	folded := productkey.Fold(key)
	for _, rule := range t.Rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(folded, productkey.Fold(kw)) {
				return rule.FamilyID, true
			}
		}
	}
	return 0, false
}

// LoadRuleTable reads a rule table from a YAML file. An empty path or a
// missing file falls back to the built-in table.
func LoadRuleTable(path string, logger logging.Logger) (*RuleTable, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if path == "" {
		return DefaultRuleTable(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.WithField("path", path).Debug("No rule file, using built-in rules")
			return DefaultRuleTable(), nil
		}
		return nil, fmt.Errorf("reading rule table %s: %w", path, err)
	}

	var table RuleTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parsing rule table %s: %w", path, err)
	}
	if table.Version < 1 {
		return nil, fmt.Errorf("rule table %s: missing or invalid version", path)
	}
	if len(table.Rules) == 0 {
		return nil, fmt.Errorf("rule table %s: no rules", path)
	}

	logger.WithFields(
		logging.Field{Key: "path", Value: path},
		logging.Field{Key: "rules", Value: len(table.Rules)},
	).Debug("Rule table loaded")
	return &table, nil
}

// DefaultRuleTable returns the built-in rule set. The prepared-meals rule
// comes first so "PIZZA" or "ARROZ AL HORNO" are not captured by the more
// generic bread or rice rules further down.
func DefaultRuleTable() *RuleTable {
	return &RuleTable{
		Version: 1,
		Rules: []Rule{
			{FamilyID: 15, Keywords: []string{
				"BENTO", "SALMOREJO", "GAZPACHO", "TORTILLA PATATA", "FABADA",
				"ENSALADILLA", "COCIDO", "CROQUETA", "ARROZ AL HORNO", "PIZZA",
				"COULANT", "CHILI CON CARNE", "CALDO", "TSATSIKI", "PATÉ",
			}},
			{FamilyID: 1, Keywords: []string{
				"AGUACATE", "AJO", "ALCACHOFA", "BANANA", "BROCOLI", "CALABACIN",
				"CEBOLLA", "CHAMPIÑON", "CIRUELA", "COLIFLOR", "ESPINACA",
				"FRAMBUESA", "FRESA", "JUDIA", "KIWI", "LIMON", "MANDARINA",
				"MANZANA", "MELOCOT", "MELON", "NARANJA", "NECTARINA", "PATATA",
				"PEPINO", "PERA ", "PIMIENTO", "PLATANO", "PUERRO", "SANDIA",
				"SETA", "TOMATE CHERRY", "TOMATE RAMA", "UVA", "ZANAHORIA",
				"CANONIGOS", "RUCULA", "BERENJENA",
			}},
			{FamilyID: 2, Keywords: []string{
				"POLLO", "PECHUGA", "MUSLO", "FILETE", "TERNERA", "CERDO",
				"CORDERO", "LOMO", "COSTILLA", "CHULETA", "HAMBURGUESA", "BURGER",
				"SALCHICHA", "CHORIZO", "JAMON", "MORTADELA", "FUET", "BACON",
				"PANCETA", "PAVO ", "CONEJO", "ENTRECOT", "SOLOMILLO", "MORCILLA",
			}},
			{FamilyID: 3, Keywords: []string{
				"SALMON", "ATUN", "MERLUZA", "BACALAO", "DORADA", "LUBINA",
				"TRUCHA", "SARDINA", "CABALLA", "ANCHOA", "GAMBA", "LANGOSTINO",
				"MEJILLON", "BERBERECHO", "CALAMAR", "PULPO", "SEPIA", "GALERA",
				"PESCADO", "MARISCO", "SURIMI",
			}},
			{FamilyID: 4, Keywords: []string{
				"LECHE ENTERA", "LECHE SEMI", "LECHE S/LACT", "YOGUR", "GRIEGO",
				"QUESO", "MANTEQUILLA", "NATA ", "HUEVO", "KEFIR", "CUAJADA",
				"REQUESON", "MOZZARELLA", "BRIE", "CAMEMBERT", "NATILLA", "FLAN",
				"BATIDO", "PETIT ",
			}},
			{FamilyID: 5, Keywords: []string{
				"PAN DE", "PAN VIENA", "PAN BLANCO", "PAN RALLADO", "PAN TOSTADO",
				"BARRA DE PAN", "BAGUETTE", "BOCADILLO", "PANECILLO", "ROSQUILLA",
				"MAGDALENA", "BIZCOCHO", "GALLETA", "CRACKERS", "EMPANADA",
				"BAGEL", "HARINA", "MUFFIN", "INTEGRAL",
			}},
			{FamilyID: 6, Keywords: []string{
				"LENTEJA", "GARBANZO", "ALUBIA", "ATUN CLARO", "TOMATE TRITURADO",
				"TOMATE TROCEADO", "HUMMUS", "ALTRAMUZ", "ACEITUNA", "PEPINILLO",
				"BANDERILLAS", "PISTO", "PIPARRA", "ALCAPARRAS", "ESPARRAGO",
			}},
			{FamilyID: 7, Keywords: []string{
				"SPAGHETTI", "ESPAGUETI", "MACARRON", "TALLARIN", "LASAÑA",
				"NOODLES", "FIDEO", "PENNE", "ARROZ BOMBA", "ARROZ BASMATI",
				"ARROZ REDONDO", "COUS COUS", "QUINOA", "AVENA", "MUESLI",
				"CEREAL", "PALOMITAS",
			}},
			{FamilyID: 8, Keywords: []string{
				"ACEITE GIRASOL", "ACEITE OLIVA", "VINAGRE", "MAYONESA",
				"KETCHUP", "MOSTAZA", "SALSA", "TOMATE FRITO", "AZUCAR",
				"LECHE DE COCO", "PIMIENTA NEGRA",
			}},
			{FamilyID: 9, Keywords: []string{
				"PAT. CLASS", "PATATAS LISAS", "NACHOS", "CHICLE", "GOLOSINA",
				"SNACK", "PIPA", "MERMELADA", "BOMBONES", "SURTIDO", "TARTA",
				"CREMA AVELLANA", "COOKIE", "TURR", "ANACARDO", "NUEZ",
				"TORTITAS ARROZ",
			}},
			{FamilyID: 10, Keywords: []string{
				"AGUA MINERAL", "AGUA SIN GAS", "ZUMO", "REFRESCO", "GASEOSA",
				"CERVEZA", "CERV ", "VINO", "RIOJA", "CAFE", "CAFÉ", "ICE TEA",
				"ISOTONIC", "COCA COLA", "COLA ZERO", "HORCHATA", "CACAO",
			}},
			{FamilyID: 11, Keywords: []string{
				"GUISANTES", "HABITAS", "HIELO", "HELADO", "FIGURITAS MERLUZA",
				"MINI CONO",
			}},
			{FamilyID: 12, Keywords: []string{
				"DETERGENTE", "SUAVIZANTE", "LAVAVAJILL", "FRIEGASUELOS",
				"BAYETA", "ESTROPAJO", "ROLLO HOGAR", "PAPEL ALUMINIO",
				"FILM TRANSP", "BOLSA BASURA", "GEL WC", "LIMPIADOR", "LEJIA",
				"AMONIACO", "FOSFOROS",
			}},
			{FamilyID: 13, Keywords: []string{
				"CHAMPU", "GEL DUCHA", "GEL DERMO", "JABON", "DESODORANTE",
				"DEO ROLL", "CREMA HIDRAT", "PASTA DENTAL", "CEPILLO DENT",
				"MAQUINILLA", "COMPRESAS", "TAMPON", "COLONIA", "HIGIENICO",
			}},
			{FamilyID: 14, Keywords: []string{
				"CARBON VEGETAL", "PARKING",
			}},
		},
	}
}
