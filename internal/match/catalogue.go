package match

import (
	"fmt"

	"cvlens/internal/types"

	"github.com/spf13/viper"
)

// DefaultCatalogue is the built-in job-role catalogue used when no catalogue
// file is configured. Insertion order is significant: it breaks similarity
// ties in query results.
var DefaultCatalogue = []types.JobCatalogueEntry{
	{
		Role: "Senior Software Engineer",
		Description: "Design and build scalable backend services, REST APIs, microservices. " +
			"Proficient in Python, Java, or Go. Experience with CI/CD, Docker, Kubernetes. " +
			"Strong system design and code review skills.",
	},
	{
		Role: "Data Scientist",
		Description: "Develop machine-learning models, perform statistical analysis, build data pipelines. " +
			"Proficient in Python, pandas, scikit-learn, TensorFlow. Experience with A/B testing and experiment design.",
	},
	{
		Role: "Machine Learning Engineer",
		Description: "Deploy ML models to production, build feature stores, optimise inference latency. " +
			"Proficient in Python, PyTorch, MLflow, Docker. Strong software engineering fundamentals.",
	},
	{
		Role: "DevOps / Platform Engineer",
		Description: "Build and maintain CI/CD pipelines, infrastructure as code (Terraform, CloudFormation). " +
			"Manage Kubernetes clusters, monitoring, and alerting. Strong Linux and networking skills.",
	},
	{
		Role: "Frontend Developer",
		Description: "Build responsive web applications with React, Vue, or Angular. " +
			"Proficient in TypeScript, HTML/CSS, and state management. " +
			"Experience with design systems and accessibility best practices.",
	},
	{
		Role: "Full Stack Developer",
		Description: "Work across frontend and backend, building end-to-end features. " +
			"Proficient in JavaScript/TypeScript, Python, databases (SQL & NoSQL). Experience with cloud services.",
	},
	{
		Role: "Product Manager",
		Description: "Define product roadmap, prioritise features, work with engineering and design teams. " +
			"Strong analytical skills, user research, A/B testing, stakeholder communication.",
	},
	{
		Role: "Data Analyst",
		Description: "Analyse business data, build dashboards and reports. " +
			"Proficient in SQL, Excel, Tableau/Power BI. Experience with statistical analysis and data visualisation.",
	},
	{
		Role: "AI / NLP Engineer",
		Description: "Build NLP pipelines, fine-tune large language models, develop RAG systems. " +
			"Proficient in Python, LangChain, Hugging Face, vector databases. Research background is a plus.",
	},
	{
		Role: "University Lecturer / Researcher",
		Description: "Teach courses in computer science or related fields. " +
			"Publish research papers, supervise students, apply for grants. PhD required. " +
			"Strong communication and presentation skills.",
	},
}

// LoadCatalogue returns the catalogue from a YAML file, or the built-in
// catalogue when path is empty.
//
// File format:
//
//	jobs:
//	  - role: Backend Engineer
//	    description: ...
func LoadCatalogue(path string) ([]types.JobCatalogueEntry, error) {
	if path == "" {
		return DefaultCatalogue, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read catalogue file %s: %w", path, err)
	}

	var file struct {
		Jobs []types.JobCatalogueEntry `mapstructure:"jobs"`
	}
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("failed to parse catalogue file %s: %w", path, err)
	}

	if len(file.Jobs) == 0 {
		return nil, fmt.Errorf("catalogue file %s contains no jobs", path)
	}
	for i, job := range file.Jobs {
		if job.Role == "" || job.Description == "" {
			return nil, fmt.Errorf("catalogue file %s: job %d is missing role or description", path, i)
		}
	}

	return file.Jobs, nil
}
