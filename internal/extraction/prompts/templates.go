package prompts

// Prompt names and categories looked up for CV extraction.
const (
	CVSystemPromptName  = "CVExtractionSystemInstructions"
	CVScoringPromptName = "CVExtractionScoringInstructions"
	CVDefaultCategory   = "cv_extraction"

	TranscriptScoringPromptName = "Transcript Scoring Prompt"
)

const (
	systemMarker = "---SYSTEM---"
	userMarker   = "---USER---"
)

const defaultSystemMessage = `You extract structured data from resumes and CVs.
Respond with a single JSON object and nothing else. Extract every piece of information the document contains.
Use null for anything the document does not state.

Array fields such as JobTypePreferences, RemotePreferences and Roles are always arrays, even with one entry:
["Full-stack Software Engineer"], never "Full-stack Software Engineer".`

const defaultScoringInstructions = `- Scoring.Level is one of: Junior | Mid | Senior | Expert
- Scoring.Score is an integer from 1 to 10; Scoring.Years is an integer
- JobTypePreferences and RemotePreferences are arrays: ["value"] never "value"
- Scoring is always an array of objects, possibly empty, never a single object or null
- Summaries holds short texts (at most 10 sentences each) for the positives, the negatives and the weaknesses of the candidate.
  Summaries.Type is one of: Positives | Negatives | Overall | Weaknesses
- KeyStrengths is a short list of the candidate's strengths, one sentence each`

const defaultUserTemplate = `Analyze the CV/resume text below and extract all available information.
Return it in exactly the JSON shape shown at the end. Use null for missing information.

OUTPUT RULES:
{scoring_text}

CV/Resume text:
{resume_text}

JSON shape (PascalCase field names):
{
"UserProfile": {"ResumeUrl": null, "Name": null, "Email": null, "PhoneNumber": null, "Age": null, "Nationality": null, "ProfilePictureUrl": null, "Bio": null, "JobTypePreferences": [], "OpenToRelocation": null, "RemotePreferences": [], "Roles": []},
"Candidate": {"CvFileId": null, "UserProfileId": null},
"Experience": [{"Title": null, "Organization": null, "Industry": null, "Location": null, "StartDate": null, "EndDate": null, "Description": null}],
"Education": [{"Degree": null, "Institution": null, "FieldOfStudy": null, "Location": null, "StartDate": null, "EndDate": null}],
"Skills": [{"Category": null, "SkillName": null, "Proficiency": null, "YearsExperience": null, "Unit": null}],
"ProjectsResearch": [{"Title": null, "Description": null, "Role": null, "TechnologiesUsed": null, "Link": null}],
"CertificationsLicenses": [{"Name": null, "Issuer": null, "DateIssued": null, "ValidUntil": null}],
"AwardsAchievements": [{"Title": null, "Issuer": null, "Year": null, "Description": null}],
"VolunteerExtracurricular": [{"Role": null, "Organization": null, "StartDate": null, "EndDate": null, "Description": null}],
"Scoring": [{"Category": null, "FixedCategory": null, "Score": null, "Years": null, "Level": null}],
"Summaries": [{"Type": null, "Text": null}],
"KeyStrengths": [{"StrengthName": null, "Description": null}]
}`

const defaultTranscriptPrompt = `You are evaluating a technical job interview transcript.
Score the candidate from 0 to 100 on each criterion, using these weights for your overall judgement:
technical {technical_weight}%, communication {communication_weight}%, problem solving {problem_solving_weight}%, English {english_weight}%.

Respond with JSON only:
{"Technical": 0, "Communication": 0, "ProblemSolving": 0, "English": 0}

Transcript:
{transcript_conversation}`

// DefaultTranscriptPrompt is used when no transcript scoring prompt is stored.
func DefaultTranscriptPrompt() string { return defaultTranscriptPrompt }
