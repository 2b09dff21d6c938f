package engine

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/shaiso/Trinity/internal/domain"
)

// Значения по умолчанию для шагов без id/type.
const (
	DefaultStepID = "unnamed"
)

// ParseResult — результат разбора YAML.
//
// Если Err != nil, Steps пустой: частичных результатов нет.
type ParseResult struct {
	// Definition — метаданные процесса и шаги.
	Definition domain.ProcessDefinition

	// Steps — шаги в порядке объявления (то же, что Definition.Steps).
	Steps []domain.Step

	// Err — ошибка парсера (*ParseError) или nil.
	Err error
}

// ErrorText возвращает текст ошибки или пустую строку.
func (r ParseResult) ErrorText() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Parse разбирает YAML-определение процесса.
//
// Никогда не паникует. Поддерживает две формы steps:
//   - последовательность: каждый элемент — тело шага с полем id
//   - mapping: ключ — id шага, значение — тело шага
//
// Любая другая форма (steps нет, null, скаляр) даёт пустой список без ошибки.
func Parse(text string) ParseResult {
	var doc yaml.Node
	err := yaml.Unmarshal([]byte(text), &doc)
	if err == nil {
		// Декодирование в yaml.Node не проверяет то, что yaml.v3
		// проверяет при декодировании в map
		err = checkNode(&doc, make(map[*yaml.Node]bool))
	}
	if err != nil {
		return ParseResult{
			Steps: []domain.Step{},
			Err:   &ParseError{Err: err},
		}
	}

	root := documentRoot(&doc)
	def := domain.ProcessDefinition{
		Steps: []domain.Step{},
	}

	if root != nil && root.Kind == yaml.MappingNode {
		def.Name = scalarField(root, "name")
		def.Version = scalarField(root, "version")
		def.Description = scalarField(root, "description")
		def.Trigger = parseTrigger(field(root, "trigger"))
		def.Steps = parseSteps(field(root, "steps"))
	}

	return ParseResult{
		Definition: def,
		Steps:      def.Steps,
	}
}

// parseSteps разбирает секцию steps.
func parseSteps(node *yaml.Node) []domain.Step {
	steps := make([]domain.Step, 0)
	if node == nil {
		return steps
	}

	switch node.Kind {
	case yaml.SequenceNode:
		for _, item := range node.Content {
			body := resolve(item)
			steps = append(steps, stepFromBody(scalarField(body, "id"), body))
		}
	case yaml.MappingNode:
		// Порядок как в файле, слитые через << шаги — на месте ключа слияния
		for _, p := range pairs(node) {
			steps = append(steps, stepFromBody(scalarValue(p.key), resolve(p.value)))
		}
	}

	return steps
}

// stepFromBody строит шаг из тела, подставляя значения по умолчанию.
// body может быть nil или не-mapping — тогда всё по умолчанию.
func stepFromBody(id string, body *yaml.Node) domain.Step {
	if id == "" {
		id = DefaultStepID
	}

	stepType := domain.StepType(scalarField(body, "type"))
	if stepType == "" {
		stepType = domain.StepTypeUnknown
	}

	return domain.Step{
		ID:        id,
		Name:      scalarField(body, "name"),
		Type:      stepType,
		DependsOn: stringList(field(body, "depends_on")),
	}
}

// parseTrigger читает секцию trigger. Не-mapping игнорируется.
func parseTrigger(node *yaml.Node) *domain.Trigger {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	return &domain.Trigger{
		Type:     domain.TriggerType(scalarField(node, "type")),
		Schedule: scalarField(node, "schedule"),
		Timezone: scalarField(node, "timezone"),
	}
}

// stringList превращает узел в список строк.
// Одиночный скаляр считается списком из одного элемента (null и "" — пустой
// список). В последовательности скаляры сохраняются как есть, null даёт "":
// такая зависимость никогда не разрешится. Не-скалярные элементы пропускаются.
func stringList(node *yaml.Node) []string {
	out := make([]string, 0)
	if node == nil {
		return out
	}

	switch node.Kind {
	case yaml.ScalarNode:
		if v := scalarValue(node); v != "" {
			out = append(out, v)
		}
	case yaml.SequenceNode:
		for _, item := range node.Content {
			item = resolve(item)
			if item == nil || item.Kind != yaml.ScalarNode {
				continue
			}
			out = append(out, scalarValue(item))
		}
	}

	return out
}

// documentRoot возвращает корневой узел документа (nil для пустого файла).
func documentRoot(doc *yaml.Node) *yaml.Node {
	if doc.Kind == yaml.DocumentNode {
		if len(doc.Content) == 0 {
			return nil
		}
		return resolve(doc.Content[0])
	}
	if doc.Kind == 0 {
		return nil
	}
	return resolve(doc)
}

// resolve раскрывает алиасы (*anchor).
func resolve(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	return node
}

// pair — ключ и значение mapping-узла.
type pair struct {
	key, value *yaml.Node
}

// pairs возвращает пары mapping-узла с раскрытыми ключами слияния (<<).
// Явные ключи важнее слитых, из нескольких слитых mapping побеждает первый.
// Циклы алиасов отсекает checkNode до вызова.
func pairs(node *yaml.Node) []pair {
	node = resolve(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}

	seen := make(map[string]bool, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		if key := node.Content[i]; !isMergeKey(key) {
			seen[key.Value] = true
		}
	}

	out := make([]pair, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if !isMergeKey(key) {
			out = append(out, pair{key: key, value: value})
			continue
		}
		for _, src := range mergeSources(value) {
			for _, p := range pairs(src) {
				if !seen[p.key.Value] {
					seen[p.key.Value] = true
					out = append(out, p)
				}
			}
		}
	}
	return out
}

// isMergeKey — ключ "<<" без кавычек.
func isMergeKey(key *yaml.Node) bool {
	return key.Kind == yaml.ScalarNode && key.Value == "<<" && key.ShortTag() == "!!merge"
}

// mergeSources возвращает mapping-узлы, которые сливает значение <<:
// один mapping или последовательность mapping. nil — значение некорректно.
func mergeSources(value *yaml.Node) []*yaml.Node {
	value = resolve(value)
	if value == nil {
		return nil
	}

	switch value.Kind {
	case yaml.MappingNode:
		return []*yaml.Node{value}
	case yaml.SequenceNode:
		out := make([]*yaml.Node, 0, len(value.Content))
		for _, item := range value.Content {
			item = resolve(item)
			if item == nil || item.Kind != yaml.MappingNode {
				return nil
			}
			out = append(out, item)
		}
		return out
	}
	return nil
}

// checkNode проверяет дерево так же, как yaml.v3 при декодировании в map:
// повторяющиеся ключи, значения <<, якоря, содержащие сами себя.
// parents — узлы на пути от корня.
func checkNode(node *yaml.Node, parents map[*yaml.Node]bool) error {
	if node == nil {
		return nil
	}

	if node.Kind == yaml.AliasNode {
		// Якорь объявлен раньше алиаса и уже проверен, опасен только предок
		if parents[node.Alias] {
			return fmt.Errorf("yaml: line %d: anchor %q value contains itself", node.Line, node.Value)
		}
		return nil
	}

	if node.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(node.Content); i += 2 {
			ki := node.Content[i]
			for j := i + 2; j+1 < len(node.Content); j += 2 {
				kj := node.Content[j]
				if ki.Kind == kj.Kind && ki.Value == kj.Value {
					return fmt.Errorf("yaml: line %d: mapping key %q already defined at line %d",
						kj.Line, kj.Value, ki.Line)
				}
			}
		}
	}

	parents[node] = true
	defer delete(parents, node)

	for i, child := range node.Content {
		if err := checkNode(child, parents); err != nil {
			return err
		}
		if node.Kind == yaml.MappingNode && i%2 == 1 && isMergeKey(node.Content[i-1]) && mergeSources(child) == nil {
			return fmt.Errorf("yaml: line %d: map merge requires map or sequence of maps as the value", child.Line)
		}
	}
	return nil
}

// field ищет значение по ключу в mapping-узле с учётом <<.
func field(node *yaml.Node, key string) *yaml.Node {
	for _, p := range pairs(node) {
		if p.key.Value == key {
			return resolve(p.value)
		}
	}
	return nil
}

// scalarField — строковое значение поля или "".
func scalarField(node *yaml.Node, key string) string {
	return scalarValue(field(node, key))
}

// scalarValue возвращает значение скаляра; null и не-скаляры дают "".
func scalarValue(node *yaml.Node) string {
	node = resolve(node)
	if node == nil || node.Kind != yaml.ScalarNode {
		return ""
	}
	if node.ShortTag() == "!!null" {
		return ""
	}
	return node.Value
}
