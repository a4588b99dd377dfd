package domain

import "fmt"

// FindModule resolves a module by id.
func (c Catalog) FindModule(moduleID string) (Module, error) {
	for _, m := range c.Modules {
		if m.ID == moduleID {
			return m, nil
		}
	}
	return Module{}, ErrModuleNotFound
}

// FindCategory resolves a category by id within a module.
func (m Module) FindCategory(categoryID string) (Category, error) {
	for _, cat := range m.Categories {
		if cat.ID == categoryID {
			return cat, nil
		}
	}
	return Category{}, ErrCategoryNotFound
}

// FindQuestion resolves a question id anywhere in the catalog and returns the
// position that addresses it. Question ids are global within a catalog.
func (c Catalog) FindQuestion(questionID string) (Question, Position, error) {
	for _, m := range c.Modules {
		for _, cat := range m.Categories {
			for _, q := range cat.Questions {
				if q.ID == questionID {
					return q, Position{ModuleID: m.ID, CategoryID: cat.ID, QuestionID: q.ID}, nil
				}
			}
		}
	}
	return Question{}, Position{}, ErrQuestionNotFound
}

// AllQuestions flattens the catalog into document order.
func (c Catalog) AllQuestions() []Question {
	var questions []Question
	for _, m := range c.Modules {
		for _, cat := range m.Categories {
			questions = append(questions, cat.Questions...)
		}
	}
	return questions
}

// Questions flattens a module into document order.
func (m Module) Questions() []Question {
	var questions []Question
	for _, cat := range m.Categories {
		questions = append(questions, cat.Questions...)
	}
	return questions
}

// FirstPosition returns the position of the very first question.
func (c Catalog) FirstPosition() (Position, error) {
	if len(c.Modules) == 0 || len(c.Modules[0].Categories) == 0 || len(c.Modules[0].Categories[0].Questions) == 0 {
		return Position{}, ErrQuestionNotFound
	}
	m := c.Modules[0]
	cat := m.Categories[0]
	return Position{ModuleID: m.ID, CategoryID: cat.ID, QuestionID: cat.Questions[0].ID}, nil
}

// FirstPositionIn returns the position of the first question of the given module.
func (c Catalog) FirstPositionIn(moduleID string) (Position, error) {
	m, err := c.FindModule(moduleID)
	if err != nil {
		return Position{}, err
	}
	if len(m.Categories) == 0 || len(m.Categories[0].Questions) == 0 {
		return Position{}, ErrQuestionNotFound
	}
	return Position{ModuleID: m.ID, CategoryID: m.Categories[0].ID, QuestionID: m.Categories[0].Questions[0].ID}, nil
}

// Resolve checks that a position addresses an existing question and returns it.
func (c Catalog) Resolve(pos Position) (Question, error) {
	m, err := c.FindModule(pos.ModuleID)
	if err != nil {
		return Question{}, err
	}
	cat, err := m.FindCategory(pos.CategoryID)
	if err != nil {
		return Question{}, err
	}
	for _, q := range cat.Questions {
		if q.ID == pos.QuestionID {
			return q, nil
		}
	}
	return Question{}, ErrQuestionNotFound
}

// Validate enforces the structural invariants of a catalog tree: at least one
// module/category/question per level, ids unique within their scope, every
// question with positive points, at least one correct answer, and answer texts
// unique within the question.
func (c Catalog) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("catalog id required")
	}
	if len(c.Modules) == 0 {
		return fmt.Errorf("catalog %s: at least one module required", c.ID)
	}
	moduleIDs := make(map[string]struct{}, len(c.Modules))
	questionIDs := make(map[string]struct{})
	for _, m := range c.Modules {
		if _, dup := moduleIDs[m.ID]; dup {
			return fmt.Errorf("catalog %s: duplicate module id %q", c.ID, m.ID)
		}
		moduleIDs[m.ID] = struct{}{}
		if len(m.Categories) == 0 {
			return fmt.Errorf("module %s: at least one category required", m.ID)
		}
		categoryIDs := make(map[string]struct{}, len(m.Categories))
		for _, cat := range m.Categories {
			if _, dup := categoryIDs[cat.ID]; dup {
				return fmt.Errorf("module %s: duplicate category id %q", m.ID, cat.ID)
			}
			categoryIDs[cat.ID] = struct{}{}
			for _, q := range cat.Questions {
				if _, dup := questionIDs[q.ID]; dup {
					return fmt.Errorf("category %s: duplicate question id %q", cat.ID, q.ID)
				}
				questionIDs[q.ID] = struct{}{}
				if err := q.validate(); err != nil {
					return fmt.Errorf("category %s: %w", cat.ID, err)
				}
			}
		}
	}
	return nil
}

func (q Question) validate() error {
	if q.Points <= 0 {
		return fmt.Errorf("question %s: points must be positive", q.ID)
	}
	texts := make(map[string]struct{}, len(q.Answers))
	correct := 0
	for _, a := range q.Answers {
		if _, dup := texts[a.Text]; dup {
			return fmt.Errorf("question %s: duplicate answer text %q", q.ID, a.Text)
		}
		texts[a.Text] = struct{}{}
		if a.IsCorrect {
			correct++
		}
	}
	if correct == 0 {
		return fmt.Errorf("question %s: at least one correct answer required", q.ID)
	}
	return nil
}

// CorrectAnswers returns the set of correct answer texts.
func (q Question) CorrectAnswers() map[string]struct{} {
	correct := make(map[string]struct{})
	for _, a := range q.Answers {
		if a.IsCorrect {
			correct[a.Text] = struct{}{}
		}
	}
	return correct
}
